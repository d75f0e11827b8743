package tools

import (
	"flag"
)

const (
	CommandStream = "stream"
	CommandHeight = "height"
)

type FlagsGlobal struct {
	Help    *bool `json:"help"`
	Version *bool `json:"version"`
}

type StreamerFlags struct {
	URLTemplate          *string `json:"url_template"`
	ResponseType         *string `json:"response_type"`
	MaxZoom              *int    `json:"max_zoom"`
	CapMaxZoom           *int    `json:"cap_max_zoom"`
	PolarCaps            *bool   `json:"polar_caps"`
	SubdivisionThreshold *float64
	MaxConcurrentFetches *int
	FetchTimeoutSec      *int
	GeoidGrid            *string
	GeoidOffset          *float64
}

type FlagsForCommandStream struct {
	StreamerFlags
	Lon          *float64
	Lat          *float64
	Altitude     *float64
	Frames       *int
	Silent       *bool
	LogTimestamp *bool
	Help         *bool
	Version      *bool
}

type FlagsForCommandHeight struct {
	StreamerFlags
	Lon      *float64
	Lat      *float64
	Altitude *float64
	Datum    *string
	Help     *bool
}

func ParseFlagsGlobal() FlagsGlobal {
	help := defineBoolFlag("help", "h", false, "Displays this help.")
	version := defineBoolFlag("version", "v", false, "Displays the version of the terrain streamer.")

	flag.Parse()

	return FlagsGlobal{
		Help:    help,
		Version: version,
	}
}

func ParseFlagsForCommandStream(args []string) FlagsForCommandStream {
	flagCommand := flag.NewFlagSet("command-stream", flag.ExitOnError)

	streamer := defineStreamerFlags(flagCommand)
	lon := defineFloat64FlagCommand(flagCommand, "lon", "", 7.0, "Longitude of the viewpoint in decimal degrees.")
	lat := defineFloat64FlagCommand(flagCommand, "lat", "", 50.5, "Latitude of the viewpoint in decimal degrees.")
	altitude := defineFloat64FlagCommand(flagCommand, "altitude", "a", 50000, "Ellipsoidal altitude of the viewpoint in meters.")
	frames := defineIntFlagCommand(flagCommand, "frames", "f", 120, "Number of update frames to run.")
	silent := defineBoolFlagCommand(flagCommand, "silent", "s", false, "Use to suppress all the non-error messages.")
	logTimestamp := defineBoolFlagCommand(flagCommand, "timestamp", "t", false, "Adds timestamp to log messages.")
	help := defineBoolFlagCommand(flagCommand, "help", "h", false, "Displays this help.")
	version := defineBoolFlagCommand(flagCommand, "version", "v", false, "Displays the version of the terrain streamer.")

	flagCommand.Parse(args)

	return FlagsForCommandStream{
		StreamerFlags: streamer,
		Lon:           lon,
		Lat:           lat,
		Altitude:      altitude,
		Frames:        frames,
		Silent:        silent,
		LogTimestamp:  logTimestamp,
		Help:          help,
		Version:       version,
	}
}

func ParseFlagsForCommandHeight(args []string) FlagsForCommandHeight {
	flagCommand := flag.NewFlagSet("command-height", flag.ExitOnError)

	streamer := defineStreamerFlags(flagCommand)
	lon := defineFloat64FlagCommand(flagCommand, "lon", "", 7.0, "Longitude of the query point in decimal degrees.")
	lat := defineFloat64FlagCommand(flagCommand, "lat", "", 50.5, "Latitude of the query point in decimal degrees.")
	altitude := defineFloat64FlagCommand(flagCommand, "altitude", "a", 0, "Ellipsoidal altitude to convert, in meters.")
	datum := defineStringFlagCommand(flagCommand, "datum", "d", "ground", "Vertical datum of the result, one of [ellipsoid|msl|ground].")
	help := defineBoolFlagCommand(flagCommand, "help", "h", false, "Displays this help.")

	flagCommand.Parse(args)

	return FlagsForCommandHeight{
		StreamerFlags: streamer,
		Lon:           lon,
		Lat:           lat,
		Altitude:      altitude,
		Datum:         datum,
		Help:          help,
	}
}

func defineStreamerFlags(flagCommand *flag.FlagSet) StreamerFlags {
	urlTemplate := defineStringFlagCommand(flagCommand, "url", "u", "", "Tile URL template with {x}, {y} and {z} placeholders.")
	responseType := defineStringFlagCommand(flagCommand, "response-type", "", "json", "Tile payload encoding, one of [json|arraybuffer].")
	maxZoom := defineIntFlagCommand(flagCommand, "max-zoom", "z", 14, "Maximum zoom level of the main band tile pyramid.")
	capMaxZoom := defineIntFlagCommand(flagCommand, "cap-max-zoom", "", 10, "Maximum zoom level of the polar cap pyramids.")
	polarCaps := defineBoolFlagCommand(flagCommand, "polar-caps", "p", false, "Partitions the surface into the mercator band plus two polar caps.")
	threshold := defineFloat64FlagCommand(flagCommand, "threshold", "", 64, "Screen space error in pixels above which a tile subdivides.")
	concurrency := defineIntFlagCommand(flagCommand, "concurrency", "c", 4, "Upper bound on concurrent in-flight tile fetches.")
	fetchTimeout := defineIntFlagCommand(flagCommand, "fetch-timeout", "", 30, "Per fetch timeout in seconds.")
	geoidGrid := defineStringFlagCommand(flagCommand, "geoid-grid", "g", "", "Path of a geoid undulation grid file. Empty means a constant undulation.")
	geoidOffset := defineFloat64FlagCommand(flagCommand, "geoid-offset", "", 0, "Constant geoid undulation in meters, used when no grid is given.")

	return StreamerFlags{
		URLTemplate:          urlTemplate,
		ResponseType:         responseType,
		MaxZoom:              maxZoom,
		CapMaxZoom:           capMaxZoom,
		PolarCaps:            polarCaps,
		SubdivisionThreshold: threshold,
		MaxConcurrentFetches: concurrency,
		FetchTimeoutSec:      fetchTimeout,
		GeoidGrid:            geoidGrid,
		GeoidOffset:          geoidOffset,
	}
}

func defineStringFlag(name string, shortHand string, defaultValue string, usage string) *string {
	var output string
	flag.StringVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flag.StringVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineBoolFlag(name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flag.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name {
		flag.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineStringFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue string, usage string) *string {
	var output string
	flagCommand.StringVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.StringVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineIntFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue int, usage string) *int {
	var output int
	flagCommand.IntVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.IntVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineFloat64FlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue float64, usage string) *float64 {
	var output float64
	flagCommand.Float64Var(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.Float64Var(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineBoolFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flagCommand.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}
