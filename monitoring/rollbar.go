package monitoring

import (
	"log"
	"os"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
)

var enabled bool

// Init configures Rollbar. With an empty token reporting stays off and errors
// only go to the standard logger.
func Init(token, env, codeVersion string) {
	if token == "" {
		log.Println("⚠️ ROLLBAR_TOKEN not set, error reporting disabled.")
		rollbar.SetEnabled(false)
		return
	}
	host, _ := os.Hostname()
	rollbar.SetToken(token)
	rollbar.SetEnvironment(env)
	rollbar.SetServerHost(host)
	rollbar.SetCodeVersion(codeVersion)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(true)
	enabled = true
	log.Println("✅ Rollbar error reporting initialized.")
}

// Report logs err and forwards it to Rollbar with request context.
func Report(err error, extras map[string]interface{}) {
	log.Printf("🔥 %v %v", err, extras)
	if !enabled {
		return
	}
	rollbar.Error(err, extras)
}

// Critical is used for recovered panics.
func Critical(err error, extras map[string]interface{}) {
	log.Printf("🔥 CRITICAL: %v %v", err, extras)
	if !enabled {
		return
	}
	rollbar.Critical(err, extras)
}

// Close flushes queued reports before shutdown.
func Close() {
	if enabled {
		rollbar.Wait()
	}
}
