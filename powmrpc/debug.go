package powmrpc

import (
	"fmt"
	"log"
	"os"
	"strconv"
)

// Debugging is switched on with POWM_DEBUG=1, and state dumps additionally
// with POWM_DUMP=1.
type logTopic string

const (
	dInfo    logTopic = "INFO"
	dWarning logTopic = "WARN"
	dError   logTopic = "ERRO"
	dDump    logTopic = "DUMP"
)

var (
	debug = envBool("POWM_DEBUG")
	dump  = envBool("POWM_DUMP")
)

func envBool(name string) bool {
	v, err := strconv.ParseBool(os.Getenv(name))
	return err == nil && v
}

func IsDebug() bool {
	return debug
}

func IsDump() bool {
	return debug && dump
}

func logf(topic logTopic, header string, format string, a ...interface{}) {
	if !IsDebug() || (topic == dDump && !IsDump()) {
		return
	}
	log.SetFlags(log.Lmicroseconds)
	log.Printf("%s [%s] %s", topic, header, fmt.Sprintf(format, a...))
}
