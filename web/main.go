package main

import (
	"flag"

	"github.com/df07/go-weekend-raytracer/pkg/rendercache"
	"github.com/df07/go-weekend-raytracer/web/server"
	"github.com/golang/glog"
)

func main() {
	port := flag.Int("port", 8080, "Port to serve on")
	scenesDir := flag.String("scenes-dir", "", "Directory of YAML scene files (default scenes/ or ../scenes/)")
	staticDir := flag.String("static-dir", "", "Directory of static UI files to serve at / (empty disables)")
	cacheDir := flag.String("cache-dir", "", "Directory of the render cache (empty disables caching)")
	workers := flag.Int("workers", 0, "Parallel workers per render (0 = number of CPUs)")
	flag.Parse()
	defer glog.Flush()

	config := server.Config{
		Port:      *port,
		ScenesDir: *scenesDir,
		StaticDir: *staticDir,
		Workers:   *workers,
	}
	if *cacheDir != "" {
		cache, err := rendercache.Open(*cacheDir)
		if err != nil {
			glog.Exitf("Error opening render cache: %v", err)
		}
		defer cache.Close()
		config.Cache = cache
	}

	glog.Infof("Weekend Raytracer Web Server")
	glog.Infof("Visit http://localhost:%d to start rendering", *port)

	if err := server.NewServer(config).Start(); err != nil {
		glog.Errorf("Error starting server: %v", err)
	}
}
