package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"
)

// AlertMessage is the payload published to the fraud-alerts topic for every
// invoice that crosses the alert floor. Consumers (notification fan-out,
// audit trail) are external to this service.
type AlertMessage struct {
	ID            int       `json:"id"`
	InvoiceId     int       `json:"invoice_id"`
	ProjectId     int       `json:"project_id"`
	RiskScore     int       `json:"risk_score"`
	Category      string    `json:"category"`
	DetectedAt    time.Time `json:"detected_at"`
	CorrelationId string    `json:"correlation_id"`
}

var (
	pubsubClient   *pubsub.Client
	pubsubClientMu sync.Mutex
)

func init() {
	// Load env from .env
	godotenv.Load()
}

func getPubSubProjectID() string {
	if v := os.Getenv("PUBSUB_PROJECT_ID"); v != "" {
		return v
	}
	// Cloud Run/Cloud Functions often set this.
	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" {
		return v
	}
	if v := os.Getenv("GCP_PROJECT"); v != "" {
		return v
	}
	return ""
}

func getAlertTopicID() string {
	if v := os.Getenv("FRAUD_ALERT_TOPIC"); v != "" {
		return v
	}
	return "fraud-alerts"
}

func getPubSubClient(ctx context.Context) (*pubsub.Client, error) {
	pubsubClientMu.Lock()
	if pubsubClient != nil {
		c := pubsubClient
		pubsubClientMu.Unlock()
		return c, nil
	}
	pubsubClientMu.Unlock()

	projectID := getPubSubProjectID()
	if projectID == "" {
		return nil, errors.New("PUBSUB_PROJECT_ID/GOOGLE_CLOUD_PROJECT not set")
	}

	credJSON := os.Getenv("PUBSUB_CREDENTIALS_JSON")

	var (
		c   *pubsub.Client
		err error
	)
	if credJSON != "" {
		c, err = pubsub.NewClient(ctx, projectID, option.WithCredentialsJSON([]byte(credJSON)))
	} else {
		// Uses Application Default Credentials (Cloud Run service account or GOOGLE_APPLICATION_CREDENTIALS).
		c, err = pubsub.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, err
	}

	pubsubClientMu.Lock()
	if pubsubClient == nil {
		pubsubClient = c
	} else {
		// Another goroutine won the race; close ours.
		_ = c.Close()
	}
	c2 := pubsubClient
	pubsubClientMu.Unlock()

	log.Printf("pubsub client ready (project_id=%s)", projectID)
	return c2, nil
}

func CreateTopicIfNotExists(c *pubsub.Client, topic string) (*pubsub.Topic, error) {
	if c == nil {
		return nil, errors.New("pubsub client is nil")
	}
	if topic == "" {
		return nil, errors.New("topic is required")
	}

	ctx := context.Background()
	t := c.Topic(topic)
	ok, err := t.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		return t, nil
	}
	t, err = c.CreateTopic(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("create topic %q: %w", topic, err)
	}
	return t, nil
}

// PublishFraudAlertWithResult publishes an alert and waits for the server-assigned
// message id. Callers (the outbox dispatcher) own retry/backoff; this function
// performs a single attempt.
func PublishFraudAlertWithResult(ctx context.Context, msg AlertMessage) (string, error) {
	client, err := getPubSubClient(ctx)
	if err != nil {
		return "", err
	}
	topic, err := CreateTopicIfNotExists(client, getAlertTopicID())
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}

	result := topic.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"correlation_id": msg.CorrelationId,
		},
	})
	return result.Get(ctx)
}
