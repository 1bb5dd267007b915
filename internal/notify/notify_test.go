package notify

import (
	"testing"

	"github.com/nmorel/bvharvest/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestSendRunSummary_MissingSettings(t *testing.T) {
	err := SendRunSummary(config.NotifyConfig{}, "subject", "body")
	assert.ErrorContains(t, err, "EMAIL_API_KEY")

	err = SendRunSummary(config.NotifyConfig{APIKey: "SG.test"}, "subject", "body")
	assert.ErrorContains(t, err, "NOTIFY_EMAIL")
}
