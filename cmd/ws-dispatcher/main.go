package main

import (
	"context"
	"log"
	"os"

	platformcli "github.com/Abhinav-Kukreti/analytics-platform/platform-cli"
	platformddb "github.com/Abhinav-Kukreti/analytics-platform/platform-ddb"
	platformws "github.com/Abhinav-Kukreti/analytics-platform/platform-ws"
	"github.com/Abhinav-Kukreti/analytics-platform/platform-ws/connectiondao"
	"github.com/Abhinav-Kukreti/analytics-platform/platform-ws/publish"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/urfave/cli/v2"
)

var service = platformcli.NewService("ws-dispatcher")

var opts struct {
	StreamName string
}

var streamNameFlag = platformcli.StringFlag("stream-name", "The events stream to consume (console mode)", &opts.StreamName)

func main() {
	app := platformcli.App(
		service,
		action,
		append(
			platformcli.CommonFlags,
			append(platformddb.DDBFlags, streamNameFlag)...,
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
	metrics := platformcli.NewMetrics(service, cloudwatch.New(sess))
	dispatcher := &platformws.Dispatcher{
		Broadcaster: &platformws.Broadcaster{
			Store: store,
			Channel: &platformws.Channel{
				Sender: platformws.NewManagementSender(),
				Store:  store,
				Logger: logger,
			},
			Logger:  logger,
			Metrics: &metrics,
		},
		Logger: logger,
	}

	if platformcli.CommonOpts.Console {
		streamName := opts.StreamName
		if streamName == "" {
			streamName = publish.StreamName(platformcli.CommonOpts.Env)
		}
		return dispatcher.HandleRealtime(context.Background(), streamName)
	}

	lambda.Start(dispatcher.HandleKinesisEvent)
	return nil
}
