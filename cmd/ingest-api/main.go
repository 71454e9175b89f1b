package main

import (
	"log"
	"os"

	platformcli "github.com/Abhinav-Kukreti/analytics-platform/platform-cli"
	platformddb "github.com/Abhinav-Kukreti/analytics-platform/platform-ddb"
	platformingest "github.com/Abhinav-Kukreti/analytics-platform/platform-ingest"
	"github.com/Abhinav-Kukreti/analytics-platform/platform-ingest/eventdao"
	platformrest "github.com/Abhinav-Kukreti/analytics-platform/platform-rest"
	platformsecret "github.com/Abhinav-Kukreti/analytics-platform/platform-secret"
	platformws "github.com/Abhinav-Kukreti/analytics-platform/platform-ws"
	"github.com/Abhinav-Kukreti/analytics-platform/platform-ws/connectiondao"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/go-chi/chi/v5"
	"github.com/urfave/cli/v2"
)

var service = platformcli.NewService("ingest-api")

var opts struct {
	JWTSecret  string
	SecretName string
}

var jwtSecretFlag = platformcli.StringFlag("jwt-secret", "JWT signing secret (console mode only)", &opts.JWTSecret)
var secretNameFlag = platformcli.StringFlag("secret-name", "Secrets Manager entry holding the JWT secret", &opts.SecretName)

func main() {
	app := platformcli.App(
		service,
		action,
		append(
			platformcli.CommonFlags,
			append(platformddb.DDBFlags,
				platformcli.PortFlag(5001),
				jwtSecretFlag,
				secretNameFlag,
			)...,
		)...,
	)
	err := app.Run(os.Args)
	if err != nil {
		log.Fatalln(err)
	}
}

func action(_ *cli.Context) error {
	sess := session.Must(session.NewSession(aws.NewConfig()))
	api, err := platformddb.DynamoDBAPI(sess)
	if err != nil {
		return err
	}

	secret, err := jwtSecret(sess)
	if err != nil {
		return err
	}

	logger := platformcli.Logger(service)
	store := connectiondao.Build(api, platformcli.CommonOpts.Env)
	broadcaster := &platformws.Broadcaster{
		Store: store,
		Channel: &platformws.Channel{
			Sender: platformws.NewManagementSender(),
			Store:  store,
			Logger: logger,
		},
		Logger: logger,
	}

	handlers := &platformingest.Handlers{
		Events: eventdao.Build(api, platformcli.CommonOpts.Env),
		Bridge: &platformws.Bridge{Broadcaster: broadcaster, Logger: logger},
		Logger: logger,
	}

	routes := platformrest.Middlewares(service, chi.NewRouter())
	handlers.Routes(routes, secret)

	return platformrest.Webserver(service, routes)
}

func jwtSecret(sess *session.Session) ([]byte, error) {
	if opts.JWTSecret != "" {
		return []byte(opts.JWTSecret), nil
	}

	secretName := opts.SecretName
	if secretName == "" {
		secretName = platformcli.CommonOpts.Env + "-analytics-platform--jwt"
	}

	var data struct {
		JWTSecret string `json:"jwt_secret"`
	}
	if err := platformsecret.LoadSecret(sess, secretName, &data); err != nil {
		return nil, err
	}
	return []byte(data.JWTSecret), nil
}
