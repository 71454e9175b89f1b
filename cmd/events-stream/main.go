package main

import (
	"context"
	"log"
	"os"
	"time"

	platformcli "github.com/Abhinav-Kukreti/analytics-platform/platform-cli"
	platformddb "github.com/Abhinav-Kukreti/analytics-platform/platform-ddb"
	"github.com/Abhinav-Kukreti/analytics-platform/platform-ingest/eventdao"
	platformws "github.com/Abhinav-Kukreti/analytics-platform/platform-ws"
	"github.com/Abhinav-Kukreti/analytics-platform/platform-ws/publish"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/urfave/cli/v2"
)

// Relays committed writes on the analytics events table to the WebSocket
// events stream. Because the DynamoDB stream only carries committed writes,
// store-then-broadcast ordering holds by construction on this path.

var service = platformcli.NewService("events-stream")

var publisher *publish.Publisher

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
	publisher = publish.Build(platformcli.CommonOpts.Env)

	handler := platformddb.NewHandler(service, onInsert, nil, nil)
	return handler.Start()
}

func onInsert(ctx context.Context, newValue map[string]*dynamodb.AttributeValue) error {
	var record eventdao.Event
	if err := platformddb.ParseItem(newValue, &record); err != nil {
		return err
	}

	if platformcli.CommonOpts.Dry {
		return nil
	}

	envelope := platformws.NewEventEnvelope(record, time.Now())
	return publisher.Send(ctx, record.TenantID, envelope)
}
