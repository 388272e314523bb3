package biz

import (
	"fmt"
	"reflect"

	slog "github.com/vearne/simplelog"
	"github.com/westhule/combatcap/archive"
	"github.com/westhule/combatcap/config"
	"github.com/westhule/combatcap/plugin"
	"github.com/westhule/combatcap/util"
	"github.com/westhule/combatcap/wire"
)

// InOutPlugins struct for holding references to plugins
type InOutPlugins struct {
	Inputs  []PluginReader
	Outputs []PluginWriter
	All     []interface{}
}

// NewPlugins specify and initialize all available plugins
func NewPlugins(settings *config.AppSettings) *InOutPlugins {
	plugins := new(InOutPlugins)

	policy := wire.NewDefaultFramePolicy(toInt32Slice(settings.ExcludeFrameTypes))

	// The archiver is shared by every raw input so concurrent captures
	// land in one frame log.
	var archiver wire.FrameArchiver
	if len(settings.ArchiveDir) > 0 {
		err := plugin.IsValidDir(settings.ArchiveDir)
		if err != nil {
			slog.Fatal("%v", err)
		}
		w := archive.NewWriter(settings.ArchiveDir, &archive.WriterConfig{
			MaxSize:    settings.ArchiveMaxSize,
			MaxBackups: settings.ArchiveMaxBackups,
			MaxAge:     settings.ArchiveMaxAge,
		})
		archiver = w
		plugins.All = append(plugins.All, w)
	}

	rawConfig := plugin.RAWInputConfig{
		BufferTimeout:   settings.InputRAWBufferTimeout,
		TimestampType:   settings.InputRAWTimestampType,
		BPFFilter:       settings.InputRAWBPFFilter,
		BufferSize:      settings.InputRAWBufferSize,
		Promiscuous:     settings.InputRAWPromisc,
		Monitor:         settings.InputRAWMonitor,
		Snaplen:         settings.InputRAWOverrideSnaplen,
		Engine:          settings.InputRAWEngine,
		IgnoreInterface: settings.InputRAWIgnoreInterface,
	}
	for _, item := range settings.InputRAW {
		slog.Debug("options: %q", item)
		plugins.registerPlugin(plugin.NewRAWInput, item, rawConfig, policy, archiver)
	}

	if len(settings.InputRAWProcess) > 0 {
		conns, err := util.FindProcessConns(settings.InputRAWProcess)
		if err != nil {
			slog.Fatal("find connections of %q, %v", settings.InputRAWProcess, err)
		}
		seen := util.NewStringSet()
		for _, conn := range conns {
			addr := fmt.Sprintf("%v:%v", conn.Raddr.IP, conn.Raddr.Port)
			if seen.Has(addr) {
				continue
			}
			seen.Add(addr)
			slog.Info("%v talks to %v", settings.InputRAWProcess, addr)
			plugins.registerPlugin(plugin.NewRAWInput, addr, rawConfig, policy, archiver)
		}
	}

	for _, path := range settings.InputFileDir {
		err := plugin.IsValidDir(path)
		if err != nil {
			slog.Fatal("%v", err)
		}
		slog.Debug("NewFileDirInput, path:%v", path)
		plugins.registerPlugin(plugin.NewFileDirInput, path,
			settings.InputFileReadDepth, settings.InputFileReplaySpeed)
	}

	// ----------output----------
	if settings.OutputStdout {
		slog.Debug("NewStdOutput")
		plugins.registerPlugin(plugin.NewStdOutput, settings.Codec)
	}

	if len(settings.OutputKafkaHost) > 0 {
		cf := &plugin.OutputKafkaConfig{
			Host:    settings.OutputKafkaHost,
			Topic:   settings.OutputKafkaTopic,
			UseJSON: settings.OutputKafkaJSON,
			SASLConfig: plugin.SASLKafkaConfig{
				UseSASL:   settings.OutputKafkaUseSASL,
				Mechanism: settings.OutputKafkaMechanism,
				Username:  settings.OutputKafkaUsername,
				Password:  settings.OutputKafkaPassword,
			},
		}
		plugins.registerPlugin(plugin.NewKafkaOutput, cf)
	}

	if len(settings.OutputWebsocketAddr) > 0 {
		slog.Debug("NewWSOutput, addr:%v", settings.OutputWebsocketAddr)
		plugins.registerPlugin(plugin.NewWSOutput, settings.OutputWebsocketAddr, settings.Codec)
	}

	return plugins
}

func toInt32Slice(values []int) []int32 {
	out := make([]int32, 0, len(values))
	for _, v := range values {
		out = append(out, int32(v))
	}
	return out
}

// Automatically detects type of plugin and initialize it
func (plugins *InOutPlugins) registerPlugin(constructor interface{}, options ...interface{}) {

	vc := reflect.ValueOf(constructor)

	// Pre-processing options to make it work with reflect
	vo := []reflect.Value{}
	for i, oi := range options {
		v := reflect.ValueOf(oi)
		if !v.IsValid() {
			// nil interface option, e.g. no archiver configured
			v = reflect.Zero(vc.Type().In(i))
		}
		vo = append(vo, v)
	}

	// Calling our constructor with list of given options
	plugin := vc.Call(vo)[0].Interface()

	if r, ok := plugin.(PluginReader); ok {
		plugins.Inputs = append(plugins.Inputs, r)
	}

	if w, ok := plugin.(PluginWriter); ok {
		plugins.Outputs = append(plugins.Outputs, w)
	}
	plugins.All = append(plugins.All, plugin)
}

func (plugins *InOutPlugins) String() string {
	return fmt.Sprintf("#####  len(Inputs):%d, len(Outputs):%d, len(All):%d   #####",
		len(plugins.Inputs), len(plugins.Outputs), len(plugins.All))
}
