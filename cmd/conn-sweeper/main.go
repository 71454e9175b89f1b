package main

import (
	"context"
	"log"
	"os"
	"time"

	platformcli "github.com/Abhinav-Kukreti/analytics-platform/platform-cli"
	platformcron "github.com/Abhinav-Kukreti/analytics-platform/platform-cron"
	platformddb "github.com/Abhinav-Kukreti/analytics-platform/platform-ddb"
	"github.com/Abhinav-Kukreti/analytics-platform/platform-ws/connectiondao"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/urfave/cli/v2"
)

// Removes connection records whose expiry horizon has passed. DynamoDB's
// native TTL deletion can lag by many hours; sweeping keeps broadcasts from
// attempting long-dead connections in the meantime.

var service = platformcli.NewService("conn-sweeper")

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

	handler := platformcron.NewHandler(service, func(ctx context.Context) error {
		if platformcli.CommonOpts.Dry {
			return nil
		}
		deleted, err := store.DeleteExpired(ctx, time.Now())
		if err != nil {
			return err
		}
		logger.Info().Int("deleted", deleted).Msg("swept expired connections")
		return nil
	})
	return handler.Start()
}
