package main

import (
	"log"
	"os"

	platformcli "github.com/Abhinav-Kukreti/analytics-platform/platform-cli"
	platformddb "github.com/Abhinav-Kukreti/analytics-platform/platform-ddb"
	platformws "github.com/Abhinav-Kukreti/analytics-platform/platform-ws"
	"github.com/Abhinav-Kukreti/analytics-platform/platform-ws/connectiondao"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/urfave/cli/v2"
)

var service = platformcli.NewService("ws-handler")

func main() {
	app := platformcli.App(
		service,
		action,
		append(
			platformcli.CommonFlags,
			platformddb.DDBFlags...,
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

	logger := platformcli.Logger(service)
	store := connectiondao.Build(api, platformcli.CommonOpts.Env)
	channel := &platformws.Channel{
		Sender: platformws.NewManagementSender(),
		Store:  store,
		Logger: logger,
	}
	handler := &platformws.Handler{
		Store:   store,
		Channel: channel,
		Logger:  logger,
	}

	lambda.Start(handler.HandleEvent)
	return nil
}
