package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	slog "github.com/vearne/simplelog"
	"github.com/westhule/combatcap/biz"
	"github.com/westhule/combatcap/config"
	"github.com/westhule/combatcap/consts"
)

const banner string = `
   ______   ____     __  ___    ____     ___   ______   ______    ___     ____
  / ____/  / __ \   /  |/  /   / __ )   /   | /_  __/  / ____/   /   |   / __ \
 / /      / / / /  / /|_/ /   / __  |  / /| |  / /    / /       / /| |  / /_/ /
/ /___   / /_/ /  / /  / /   / /_/ /  / ___ | / /    / /___    / ___ | / ____/
\____/   \____/  /_/  /_/   /_____/  /_/  |_|/_/     \____/   /_/  |_|/_/
`

var settings config.AppSettings
var version bool

func init() {
	flag.BoolVar(&version, "version", false,
		"print version")

	flag.DurationVar(&settings.ExitAfter, "exit-after", 0, "exit after specified duration")

	// #################### input ######################
	flag.Var(&config.MultiStringOption{Params: &settings.InputRAW}, "input-raw",
		`Capture combat traffic of the game client, given the interface and the
server port (requires *sudo* access):
                # the game server listens on 7777
                combatcap --input-raw="eth0:7777" --output-stdout
a pcap file works too, keep the port so that the packet direction is known:
                combatcap --input-raw="dump.pcap:7777" --output-stdout
               `)

	flag.StringVar(&settings.InputRAWBPFFilter, "input-raw-bpf-filter", "",
		"BPF filter to write custom expressions. Can be useful in case of non standard network interfaces like tunneling or SPAN port. Example: --input-raw-bpf-filter 'dst port 7777'")

	flag.Var(&settings.InputRAWEngine, "input-raw-engine",
		"Intercept traffic using libpcap (default), or pcap_file")

	flag.DurationVar(&settings.InputRAWBufferTimeout, "input-raw-buffer-timeout", 0,
		"set the pcap timeout. for immediate mode don't set this flag")

	flag.StringVar(&settings.InputRAWTimestampType, "input-raw-timestamp-type", "",
		`Possible values: "go", "pcap". Not supported on all systems, combatcap will tell you the available values if you put a wrong one`)

	flag.Var(&settings.InputRAWBufferSize, "input-raw-buffer-size",
		"Controls size of the OS buffer which holds packets until they dispatched. Default value depends by system: in Linux around 2MB. If you see big package drop, increase this value.")

	flag.BoolVar(&settings.InputRAWPromisc, "input-raw-promisc", false,
		"enable promiscuous mode")

	flag.BoolVar(&settings.InputRAWMonitor, "input-raw-monitor", false,
		"enable RF monitor mode")

	flag.BoolVar(&settings.InputRAWOverrideSnaplen, "input-raw-override-snaplen", false,
		"Override the capture snaplen to be 64k. Required for some Virtualized environments")

	flag.Var(&config.MultiStringOption{Params: &settings.InputRAWIgnoreInterface},
		"input-raw-ignore-interface",
		"list of interfaces which should be ignored when capturing on all interfaces")

	flag.StringVar(&settings.InputRAWProcess, "input-raw-process", "",
		`executable name of the game client, its established connections are captured:
                combatcap --input-raw-process="game.exe" --output-stdout
               `)

	// input-file-directory
	flag.Var(&config.MultiStringOption{Params: &settings.InputFileDir}, "input-file-directory",
		`combatcap --input-file-directory="/tmp/mycapture" --output-stdout`)

	flag.IntVar(&settings.InputFileReadDepth, "input-file-read-depth", 100, "")
	/*
		Replay at 2x speed
		--input-file-replay-speed=2
	*/
	flag.Float64Var(&settings.InputFileReplaySpeed, "input-file-replay-speed", 1, "")

	// #################### output ######################
	flag.BoolVar(&settings.OutputStdout, "output-stdout", false,
		"Just prints data to console")

	// output-kafka
	flag.StringVar(&settings.OutputKafkaHost, "output-kafka-host", "",
		`Send damage records to kafka:
                combatcap --input-raw="eth0:7777" --output-kafka-host="192.168.0.1:9092,192.168.0.2:9092" --output-kafka-topic="combat"`)

	flag.StringVar(&settings.OutputKafkaTopic, "output-kafka-topic", "", "")

	flag.BoolVar(&settings.OutputKafkaJSON, "output-kafka-json-format", true,
		"If turned off, records are sent to kafka in the simple line format")

	flag.BoolVar(&settings.OutputKafkaUseSASL, "output-kafka-use-sasl", false, "")
	flag.StringVar(&settings.OutputKafkaMechanism, "output-kafka-mechanism", "", "")
	flag.StringVar(&settings.OutputKafkaUsername, "output-kafka-username", "", "")
	flag.StringVar(&settings.OutputKafkaPassword, "output-kafka-password", "", "")

	// output-websocket
	flag.StringVar(&settings.OutputWebsocketAddr, "output-websocket-address", "",
		`Stream damage records to every connected websocket client, e.g. an overlay:
                combatcap --input-raw="eth0:7777" --output-websocket-address="127.0.0.1:8998"`)

	// archive
	flag.StringVar(&settings.ArchiveDir, "archive-directory", "",
		`Append every captured frame to an archive in this directory, replayable with --input-file-directory:
                combatcap --input-raw="eth0:7777" --output-stdout --archive-directory="/tmp/mycapture"`)

	flag.IntVar(&settings.ArchiveMaxSize, "archive-max-size", 500,
		"MaxSize is the maximum size in megabytes of the archive file before it gets rotated.")

	flag.IntVar(&settings.ArchiveMaxBackups, "archive-max-backups", 10,
		"MaxBackups is the maximum number of old archive files to retain.")

	flag.IntVar(&settings.ArchiveMaxAge, "archive-max-age", 30,
		`MaxAge is the maximum number of days to retain old archive files
				based on the timestamp encoded in their filename`)

	flag.StringVar(&settings.Codec, "codec", "simple", "")

	// #################### filter ######################
	flag.Var(&config.MultiIntOption{Params: &settings.ExcludeFrameTypes}, "exclude-frame-types",
		"drop frames of this type id before decoding, can be given multiple times")

	flag.StringVar(&settings.IncludeActorMatch, "include-actor-match", "",
		`pass records only when the actor id matches the specified regular expression`)

	flag.StringVar(&settings.ExcludeSkillContains, "exclude-skill-contains", "",
		`drop records whose skill name contains the specified substring`)

	flag.IntVar(&settings.RateLimitQPS, "rate-limit-qps", 0,
		"maximum number of records per second delivered to the outputs, 0 means no limit")
}

func main() {
	fmt.Print(banner)

	adjustLogLevel()

	flag.Parse()
	if version {
		fmt.Println("service: combatcap")
		fmt.Println("Version", consts.Version)
		fmt.Println("BuildTime", consts.BuildTime)
		fmt.Println("GitTag", consts.GitTag)
		return
	}

	printSettings(&settings)

	filterChain, err := biz.NewFilterChain(&settings)
	if err != nil {
		slog.Fatal("create FilterChain error:%v", err)
	}
	emitter := biz.NewEmitter(filterChain, biz.NewRateLimit(&settings))
	plugins := biz.NewPlugins(&settings)

	slog.Info("plugins:%v", plugins)

	go emitter.Start(plugins)

	closeCh := make(chan int)
	if settings.ExitAfter > 0 {
		slog.Info("Running combatcap for a duration of %s\n", settings.ExitAfter)

		time.AfterFunc(settings.ExitAfter, func() {
			slog.Info("run timeout %s\n", settings.ExitAfter)
			close(closeCh)
		})
	}
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT)
	exit := 0
	select {
	case <-c:
		exit = 1
	case <-closeCh:
		exit = 0
	}
	emitter.Close()
	os.Exit(exit)
}

func printSettings(settings *config.AppSettings) {
	slog.Info("input-raw, %v", settings.InputRAW)
	slog.Info("input-file-directory, %v", settings.InputFileDir)
	slog.Info("input-file-replay-speed, %v", settings.InputFileReplaySpeed)

	slog.Info("output-stdout, %v", settings.OutputStdout)
	slog.Info("output-kafka-host, %v", settings.OutputKafkaHost)
	slog.Info("output-kafka-topic, %v", settings.OutputKafkaTopic)
	slog.Info("output-websocket-address, %v", settings.OutputWebsocketAddr)

	slog.Info("archive-directory, %v", settings.ArchiveDir)
	slog.Info("exclude-frame-types, %v", settings.ExcludeFrameTypes)
	slog.Info("include-actor-match, %v", settings.IncludeActorMatch)
	slog.Info("exclude-skill-contains, %v", settings.ExcludeSkillContains)
	slog.Info("codec, %v", settings.Codec)
}

func adjustLogLevel() {
	logLevel := os.Getenv("SIMPLE_LOG_LEVEL")
	if len(logLevel) > 0 {
		return
	}
	slog.SetLevel(slog.InfoLevel)
}
