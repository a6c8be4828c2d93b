package redis

import "strings"

const keyNamespace = "brewbar"

// IdempotencyKey holds a replayable HTTP response.
func (c *Client) IdempotencyKey(scope, id string) string {
	return buildKey("idempotency", scope, id)
}

// AccessSessionKey maps one access token id to its refresh token.
func (c *Client) AccessSessionKey(accessID string) string {
	return buildKey("session", "access", accessID)
}

// ProcessedEventKey marks an order event as handled by one consumer.
func (c *Client) ProcessedEventKey(consumer, eventID string) string {
	return buildKey("processed", consumer, eventID)
}

// AuthLimitKey counts attempts against one auth endpoint, per IP or per hashed
// email.
func (c *Client) AuthLimitKey(policy, scope, value string) string {
	return buildKey("auth_limit", policy, scope, value)
}

// CronLockKey is the maintenance lock for one deployment environment.
func (c *Client) CronLockKey(env string) string {
	env = strings.ToLower(strings.TrimSpace(env))
	if env == "" {
		env = "default"
	}
	return buildKey("cron", "lock", env)
}

func buildKey(parts ...string) string {
	clean := []string{keyNamespace}
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			clean = append(clean, part)
		}
	}
	return strings.Join(clean, ":")
}
