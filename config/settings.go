// Package config holds the command line configuration of combatcap.
// The field names of AppSettings map one to one onto flag names, the
// json tags carry the flag spelling so the effective settings can be
// dumped at startup.
package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/westhule/combatcap/capture"
	"github.com/westhule/combatcap/size"
)

// MultiStringOption allows to specify multiple flags with same name and collects all values into array
type MultiStringOption struct {
	Params *[]string
}

func (h *MultiStringOption) String() string {
	if h.Params == nil {
		return ""
	}
	return fmt.Sprint(*h.Params)
}

// Set gets called multiple times for each flag with same name
func (h *MultiStringOption) Set(value string) error {
	if h.Params == nil {
		return nil
	}

	*h.Params = append(*h.Params, value)
	return nil
}

// MultiIntOption allows to specify multiple flags with same name and collects all values into array
type MultiIntOption struct {
	Params *[]int
}

func (h *MultiIntOption) String() string {
	if h.Params == nil {
		return ""
	}

	return fmt.Sprint(*h.Params)
}

// Set gets called multiple times for each flag with same name
func (h *MultiIntOption) Set(value string) error {
	if h.Params == nil {
		return nil
	}

	val, _ := strconv.Atoi(value)
	*h.Params = append(*h.Params, val)
	return nil
}

// AppSettings is the struct of main configuration
type AppSettings struct {
	ExitAfter time.Duration `json:"exit-after"`

	// ######################## input #######################
	InputRAW        []string `json:"input-raw"`
	InputRAWProcess string   `json:"input-raw-process"`

	InputRAWBufferTimeout   time.Duration      `json:"input-raw-buffer-timeout"`
	InputRAWTimestampType   string             `json:"input-raw-timestamp-type"`
	InputRAWBPFFilter       string             `json:"input-raw-bpf-filter"`
	InputRAWBufferSize      size.Size          `json:"input-raw-buffer-size"`
	InputRAWPromisc         bool               `json:"input-raw-promisc"`
	InputRAWMonitor         bool               `json:"input-raw-monitor"`
	InputRAWOverrideSnaplen bool               `json:"input-raw-override-snaplen"`
	InputRAWEngine          capture.EngineType `json:"input-raw-engine"`
	InputRAWIgnoreInterface []string           `json:"input-raw-ignore-interface"`

	// --- input-file-directory ---
	InputFileDir       []string `json:"input-file-directory"`
	InputFileReadDepth int      `json:"input-file-read-depth"`
	// 2 means the recording is replayed twice as fast as it was captured
	InputFileReplaySpeed float64 `json:"input-file-replay-speed"`

	// ######################## output ########################
	OutputStdout bool `json:"output-stdout"`

	// --- output-kafka ---
	OutputKafkaHost      string `json:"output-kafka-host"`
	OutputKafkaTopic     string `json:"output-kafka-topic"`
	OutputKafkaJSON      bool   `json:"output-kafka-json-format"`
	OutputKafkaUseSASL   bool   `json:"output-kafka-use-sasl"`
	OutputKafkaMechanism string `json:"output-kafka-mechanism"`
	OutputKafkaUsername  string `json:"output-kafka-username"`
	OutputKafkaPassword  string `json:"output-kafka-password"`

	// --- output-websocket ---
	OutputWebsocketAddr string `json:"output-websocket-address"`

	// --- archive ---
	// every raw input appends its frames to this directory
	ArchiveDir string `json:"archive-directory"`
	// MaxSize is the maximum size in megabytes of the archive file before it gets rotated.
	ArchiveMaxSize int `json:"archive-max-size"`
	// MaxBackups is the maximum number of old archive files to retain.
	ArchiveMaxBackups int `json:"archive-max-backups"`
	// MaxAge is the maximum number of days to retain old archive files based on the
	// timestamp encoded in their filename.
	ArchiveMaxAge int `json:"archive-max-age"`

	// --- filter ---
	ExcludeFrameTypes    []int  `json:"exclude-frame-types"`
	IncludeActorMatch    string `json:"include-actor-match"`
	ExcludeSkillContains string `json:"exclude-skill-contains"`

	// --- rate limit ---
	// records per second
	RateLimitQPS int `json:"rate-limit-qps"`

	// --- other ---
	Codec string `json:"codec"`
}
