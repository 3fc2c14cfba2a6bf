// Package files finds the three instrument exports of an experiment in a
// directory.
//
// File names decide the table: "movement" or "distance" for the movement
// export, "turn", "heading" or "meander" for turning, "rotation" for
// rotation. Names matching more than one table are ignored.
//
//	sources, err := files.NewDiscovery("").DiscoverSources("data/run-42")
package files
