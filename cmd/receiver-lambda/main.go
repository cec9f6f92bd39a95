package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"github.com/brighthome/leadquiz/cmd/mainconfig"
	"github.com/brighthome/leadquiz/internal/app/bootstrap"
	appconfig "github.com/brighthome/leadquiz/internal/config"
	"github.com/brighthome/leadquiz/internal/notify"
	"github.com/brighthome/leadquiz/internal/sheetstore"
	"github.com/brighthome/leadquiz/internal/webhook"
	"github.com/brighthome/leadquiz/pkg/logging"
)

// The standalone serverless deployment of the lead receiver. It accepts the
// same POST payloads as the /webhooks/leads route in cmd/api, writing to a
// workbook on the Lambda's filesystem.
func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	workbookPath := strings.TrimSpace(os.Getenv("WORKBOOK_PATH"))
	if workbookPath == "" {
		workbookPath = "/tmp/leads.xlsx"
	}
	sheet, err := sheetstore.NewStore(workbookPath, logger)
	if err != nil {
		logger.Error("failed to open workbook", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	var notifier *notify.Service
	if awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg); err != nil {
		logger.Warn("aws config unavailable, notifications disabled", "error", err)
		notifier = notify.NewService(nil, "", logger)
	} else {
		sender := bootstrap.BuildEmailSender(cfg, sesv2.NewFromConfig(awsCfg), logger)
		notifier = notify.NewService(sender, cfg.SalesNotifyEmail, logger)
	}

	leadsRepo, closeRepo, err := bootstrap.BuildLeadsRepository(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer closeRepo()

	processor := webhook.NewProcessor(sheet, leadsRepo, notifier, nil, logger)

	lambda.Start(func(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		return handle(ctx, processor, evt)
	})
}

func handle(ctx context.Context, processor *webhook.Processor, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	method := strings.ToUpper(strings.TrimSpace(evt.RequestContext.HTTP.Method))

	switch method {
	case http.MethodGet:
		return jsonResponse(map[string]string{
			"status":    "ok",
			"message":   "Lead receiver is running",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}), nil
	case http.MethodPost:
		body, err := decodeBody(evt)
		if err != nil {
			return jsonResponse(webhook.Response{Success: false, Error: "Invalid request body"}), nil
		}
		return jsonResponse(processor.Process(ctx, body)), nil
	default:
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusMethodNotAllowed}, nil
	}
}

func decodeBody(evt events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if !evt.IsBase64Encoded {
		return []byte(evt.Body), nil
	}
	return base64.StdEncoding.DecodeString(evt.Body)
}

func jsonResponse(body any) events.APIGatewayV2HTTPResponse {
	raw, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusInternalServerError}
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"content-type": "application/json"},
		Body:       string(raw),
	}
}
