package config

import (
	"os"
	"strings"
)

const defaultConnectionString = "Host=localhost;Port=5432;Database=sms_payment_db;Username=postgres;Timeout=30;CommandTimeout=30"
const defaultHTTPAddr = ":8080"

// Default keys match the ones baked into the reference mobile client.
// Production deployments must override both via the environment.
const defaultEncryptionKey = "K7gNU3sdo+OL0wNhqoVWhr3g6s1xYv72ol/pe/Unols="
const defaultMacKey = "x9WlcJjQqrEJ0v0tSmFhXg3o/1GJorRwU2ray5V1y2c="

const defaultChannelID = "PaySeva"
const defaultChannelKey = "PaySevaKey001"

type Config struct {
	DatabaseDSN   string
	MigrationsDir string
	HTTPAddr      string
	EncryptionKey string
	MacKey        string
	ChannelID     string
	ChannelKey    string
	SmsAuthKey    string
	SmsTemplateID string
	SmsSenderID   string
}

func Load() (Config, error) {
	conn := strings.TrimSpace(os.Getenv("DATABASE_DSN"))
	if conn == "" {
		conn = defaultConnectionString
	}

	migrationsDir := strings.TrimSpace(os.Getenv("MIGRATIONS_DIR"))
	if migrationsDir == "" {
		migrationsDir = "migrations"
	}

	httpAddr := strings.TrimSpace(os.Getenv("HTTP_ADDR"))
	if httpAddr == "" {
		httpAddr = defaultHTTPAddr
	}

	encryptionKey := strings.TrimSpace(os.Getenv("ENCRYPTION_KEY"))
	if encryptionKey == "" {
		encryptionKey = defaultEncryptionKey
	}

	macKey := strings.TrimSpace(os.Getenv("MAC_KEY"))
	if macKey == "" {
		macKey = defaultMacKey
	}

	channelID := strings.TrimSpace(os.Getenv("CHANNEL_ID"))
	if channelID == "" {
		channelID = defaultChannelID
	}

	channelKey := strings.TrimSpace(os.Getenv("CHANNEL_KEY"))
	if channelKey == "" {
		channelKey = defaultChannelKey
	}

	return Config{
		DatabaseDSN:   normalizeConnectionString(conn),
		MigrationsDir: migrationsDir,
		HTTPAddr:      httpAddr,
		EncryptionKey: encryptionKey,
		MacKey:        macKey,
		ChannelID:     channelID,
		ChannelKey:    channelKey,
		SmsAuthKey:    strings.TrimSpace(os.Getenv("SMS_AUTH_KEY")),
		SmsTemplateID: strings.TrimSpace(os.Getenv("SMS_TEMPLATE_ID")),
		SmsSenderID:   strings.TrimSpace(os.Getenv("SMS_SENDER_ID")),
	}, nil
}

func normalizeConnectionString(raw string) string {
	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	hasSSLMode := false

	for _, part := range parts {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}

		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}

		key := strings.ToLower(strings.TrimSpace(kv[0]))
		val := strings.TrimSpace(kv[1])

		switch key {
		case "host":
			out = append(out, "host="+val)
		case "port":
			out = append(out, "port="+val)
		case "database":
			out = append(out, "dbname="+val)
		case "username":
			out = append(out, "user="+val)
		case "password":
			out = append(out, "password="+val)
		case "timeout", "connect timeout":
			out = append(out, "connect_timeout="+val)
		case "commandtimeout", "command timeout":
			out = append(out, "statement_timeout="+val+"s")
		case "sslmode":
			hasSSLMode = true
			out = append(out, "sslmode="+val)
		default:
			out = append(out, key+"="+val)
		}
	}

	if len(out) == 0 {
		return raw
	}

	if !hasSSLMode {
		out = append(out, "sslmode=disable")
	}

	return strings.Join(out, " ")
}
