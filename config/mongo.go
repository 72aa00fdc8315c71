package config

import (
	"context"
	"crypto/tls"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig locates the utterance log store.
type MongoConfig struct {
	URI      string
	Database string
	// PinTLS12 forces TLS 1.2; Atlas rejects some Go 1.24 handshakes.
	PinTLS12    bool
	InsecureTLS bool
}

var (
	MongoClient   *mongo.Client
	mongoDatabase = "callassist"
)

// InitMongo connects the utterance log store and verifies it with a ping.
func InitMongo(c MongoConfig) error {
	if c.URI == "" {
		return errors.New("MONGO_URI is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, mongoClientOptions(c))
	if err != nil {
		return err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return err
	}

	MongoClient = client
	if c.Database != "" {
		mongoDatabase = c.Database
	}
	return nil
}

// The utterance log is written once per utterance and read by agents, so a
// small pool suffices.
func mongoClientOptions(c MongoConfig) *options.ClientOptions {
	opts := options.Client().ApplyURI(c.URI).
		SetAppName("callassist").
		SetServerSelectionTimeout(10 * time.Second).
		SetConnectTimeout(10 * time.Second).
		SetMaxPoolSize(10).
		SetMinPoolSize(1)

	if c.PinTLS12 || c.InsecureTLS {
		opts.SetTLSConfig(&tls.Config{
			InsecureSkipVerify: c.InsecureTLS,
			MinVersion:         tls.VersionTLS12,
			MaxVersion:         tls.VersionTLS12,
		})
	}
	return opts
}
