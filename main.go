package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ecopia-map/globe_terrain/internal/elevation"
	"github.com/ecopia-map/globe_terrain/internal/fetch"
	"github.com/ecopia-map/globe_terrain/internal/geometry"
	"github.com/ecopia-map/globe_terrain/pkg"
	"github.com/ecopia-map/globe_terrain/tools"
)

const VERSION = "0.3.1"

const logo = `
       _       _                 _                       _
  __ _| | ___ | |__   ___       | |_ ___ _ __ _ __ __ _ (_)_ __
 / _  | |/ _ \| '_ \ / _ \_____ | __/ _ \ '__| '__/ _  || | '_ \
| (_| | | (_) | |_) |  __/_____ | ||  __/ |  | | | (_| || | | | |
 \__, |_|\___/|_.__/ \___|      \__\___|_|  |_|  \__,_|_|_|_| |_|
 |___/  LOD terrain streamer for interactive globe renderers
        Copyright YYYY - ecopia-map
`

func main() {
	log.SetPrefix("[globe-terrain] ")
	log.SetFlags(log.LUTC | log.Ldate | log.Lmicroseconds | log.Lshortfile)

	flagsGlobal := tools.ParseFlagsGlobal()

	args := flag.Args()
	if len(args) == 0 {
		if *flagsGlobal.Help {
			showHelp()
			return
		}
		if *flagsGlobal.Version {
			printVersion()
			return
		}
		log.Fatal("Please specify a subcommand [stream|height].")
	}
	cmd, args := args[0], args[1:]

	switch cmd {
	case tools.CommandStream:
		mainCommandStream(args)
	case tools.CommandHeight:
		mainCommandHeight(args)
	default:
		log.Fatalf("Unrecognized command [%q]. Command must be one of [stream|height]", cmd)
	}
}

func mainCommandStream(args []string) {
	flags := tools.ParseFlagsForCommandStream(args)

	log.Println("flags", tools.FmtJSONString(flags))

	if *flags.Help {
		showHelp()
		return
	}
	if *flags.Version {
		printVersion()
		return
	}

	if *flags.Silent {
		tools.DisableLogger()
	} else {
		printLogo()
	}
	if *flags.LogTimestamp {
		tools.EnableLoggerTimestamp()
	}

	opts := streamerOptionsFromFlags(flags.StreamerFlags)
	if msg, res := validateOptions(opts); !res {
		log.Fatal("Error parsing input parameters: " + msg)
	}

	streamer := pkg.NewTerrainStreamer(opts)
	defer streamer.Cleanup()

	streamer.OnLoad(func(ev elevation.LoadEvent) {
		tools.LogOutput("> applied tile", ev.Tile.Index.String())
	})

	done := false
	streamer.OnLoadEnd(func() {
		done = true
		tools.LogOutput("> pending queue drained")
	})

	eye := geometry.GeoPoint{Lon: *flags.Lon, Lat: *flags.Lat}
	view := pkg.NewPointView(eye, *flags.Altitude)

	tools.LogOutput(fmt.Sprintf("Streaming terrain around (%.4f, %.4f), altitude %.0fm", eye.Lon, eye.Lat, *flags.Altitude))

	for i := 0; i < *flags.Frames; i++ {
		terminals := streamer.RunFrame(view)
		if i == 0 || done {
			tools.LogOutput(fmt.Sprintf("frame %d: %d terminal tiles, %d cached", i, len(terminals), streamer.Cache().Size()))
		}
		if done && i > 0 {
			break
		}
		time.Sleep(16 * time.Millisecond)
	}

	tools.LogOutput("Streaming completed")
}

func mainCommandHeight(args []string) {
	flags := tools.ParseFlagsForCommandHeight(args)

	log.Println("flags", tools.FmtJSONString(flags))

	if *flags.Help {
		showHelp()
		return
	}

	opts := streamerOptionsFromFlags(flags.StreamerFlags)

	mode, ok := pkg.ParseDatumMode(*flags.Datum)
	if !ok {
		log.Fatalf("Unrecognized datum [%q]. Datum must be one of [ellipsoid|msl|ground]", *flags.Datum)
	}
	if mode == elevation.DatumGround {
		if msg, res := validateOptions(opts); !res {
			log.Fatal("Error parsing input parameters: " + msg)
		}
	}

	streamer := pkg.NewTerrainStreamer(opts)
	defer streamer.Cleanup()

	p := geometry.GeoPoint{Lon: *flags.Lon, Lat: *flags.Lat}

	resolved := false
	streamer.GetHeightAsync(mode, p, func(altitude float64) {
		resolved = true
		fmt.Printf("%s altitude at (%.6f, %.6f): %.3fm\n", mode, p.Lon, p.Lat, altitude)
	}, *flags.Altitude)

	// a ground query may wait on a tile fetch resolved on a later frame
	for i := 0; i < 600 && !resolved; i++ {
		streamer.RunFrame(nil)
		time.Sleep(16 * time.Millisecond)
	}
	if !resolved {
		log.Fatal("Height query did not resolve, is the tile endpoint reachable?")
	}
}

func streamerOptionsFromFlags(flags tools.StreamerFlags) *pkg.StreamerOptions {
	opts := pkg.DefaultStreamerOptions()
	opts.URLTemplate = *flags.URLTemplate
	opts.ResponseType = fetch.ResponseType(strings.ToLower(*flags.ResponseType))
	opts.MaxZoom = *flags.MaxZoom
	opts.CapMaxZoom = *flags.CapMaxZoom
	opts.PolarCaps = *flags.PolarCaps
	opts.SubdivisionThreshold = *flags.SubdivisionThreshold
	opts.MaxConcurrentFetches = *flags.MaxConcurrentFetches
	opts.FetchTimeout = time.Duration(*flags.FetchTimeoutSec) * time.Second
	opts.GeoidGridPath = *flags.GeoidGrid
	opts.GeoidOffset = *flags.GeoidOffset
	return opts
}

func validateOptions(opts *pkg.StreamerOptions) (string, bool) {
	if opts.URLTemplate == "" {
		return "url template is required", false
	}
	if !strings.Contains(opts.URLTemplate, "{x}") || !strings.Contains(opts.URLTemplate, "{y}") || !strings.Contains(opts.URLTemplate, "{z}") {
		return "url template must contain the {x}, {y} and {z} placeholders", false
	}
	if opts.ResponseType != fetch.ResponseTypeJSON && opts.ResponseType != fetch.ResponseTypeArrayBuffer {
		return "response-type should be either json or arraybuffer", false
	}
	if opts.MaxZoom < 0 || opts.MaxZoom > 30 {
		return "max-zoom must lie between 0 and 30", false
	}

	return "", true
}

func printLogo() {
	fmt.Println(strings.ReplaceAll(logo, "YYYY", strconv.Itoa(time.Now().Year())))
}

func showHelp() {
	printLogo()
	fmt.Println("***")
	fmt.Println("globe-terrain streams LOD elevation tiles for an interactive 3D globe renderer")
	printVersion()
	fmt.Println("***")
	fmt.Println("")
	fmt.Println("Command line flags: ")
	flag.CommandLine.SetOutput(os.Stdout)
	flag.PrintDefaults()
}

func printVersion() {
	fmt.Println("v." + VERSION)
}
