package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lakeside/pkg/kafka"
	"lakeside/pkg/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Client holds the long-lived connections shared by a service process.
type Client struct {
	Mongo *mongo.Client
	Kafka *kafka.Producer
}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) SetMongo(log *logger.Logger, mongoURI string, mongoConnTimeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoConnTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", "error", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB", "error", err)
	}

	log.Info("Successfully connected to MongoDB")
	c.Mongo = client
}

func (c *Client) SetKafka(producer *kafka.Producer) {
	c.Kafka = producer
}

// Close flushes the Kafka producer and disconnects from MongoDB.
func (c *Client) Close(ctx context.Context) error {
	var errs []error
	if c.Kafka != nil {
		if err := c.Kafka.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close kafka producer: %w", err))
		}
	}
	if c.Mongo != nil {
		if err := c.Mongo.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to disconnect mongo: %w", err))
		}
	}
	return errors.Join(errs...)
}
