package distributed

import (
	"crypto/rand"
	"fmt"
	"os"
	"time"
)

// generateInstanceID creates a unique identifier for this process.
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	randomBytes := make([]byte, 4)
	_, _ = rand.Read(randomBytes)
	return fmt.Sprintf("%s-%d-%x", hostname, os.Getpid(), randomBytes)
}

// bucketKeys are the Redis keys one limiter uses. They share a hash tag so a
// cluster places them in the same slot.
type bucketKeys struct {
	tokens    string
	last      string
	config    string
	stats     string
	instances string
}

func newBucketKeys(prefix string) bucketKeys {
	tagged := "{" + prefix + "}"
	return bucketKeys{
		tokens:    tagged + ":tokens",
		last:      tagged + ":last_refill",
		config:    tagged + ":config",
		stats:     tagged + ":stats",
		instances: tagged + ":instances",
	}
}

func (k bucketKeys) all() []string {
	return []string{k.tokens, k.last, k.config, k.stats, k.instances}
}

// timeToFloat converts time to float64 seconds for Redis storage.
func timeToFloat(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// floatToTime converts float64 seconds back to time.Time.
func floatToTime(f float64) time.Time {
	return time.Unix(0, int64(f*1e9))
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
