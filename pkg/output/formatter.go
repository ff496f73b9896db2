package output

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/ritzau/hubmap/pkg/graph"
	"github.com/ritzau/hubmap/pkg/timeline"
)

// PrintNetworkReport prints a nicely formatted summary of a network with colors
func PrintNetworkReport(w io.Writer, source string, store *graph.Store) {
	// Color definitions
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	routes := store.Routes()
	dangling := store.Dangling()
	blocked := 0
	for _, r := range routes {
		if r.Blocked {
			blocked++
		}
	}

	// Header
	bold.Fprintln(w, "Hub Map - Network Report")
	bold.Fprintln(w, "========================")
	fmt.Fprintf(w, "Source: %s\n", source)
	fmt.Fprintf(w, "Hubs: %d\n", store.Len())
	fmt.Fprintf(w, "Routes: %d\n", len(routes))
	if blocked > 0 {
		red.Fprintf(w, "Blocked: %d route(s)\n", blocked)
	} else {
		green.Fprintf(w, "Blocked: 0 routes\n")
	}
	fmt.Fprintln(w)

	if store.Len() > 0 {
		bold.Fprintln(w, "HUBS:")
		for _, n := range store.Nodes() {
			cyan.Fprintf(w, "  %s", n.Name)
			fmt.Fprintf(w, " (%g, %g)", n.X, n.Y)
			if nb := store.Neighbors(n.Name); len(nb) > 0 {
				fmt.Fprintf(w, " -> %v", nb)
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w)
	}

	if len(routes) > 0 {
		bold.Fprintln(w, "ROUTES:")
		for _, r := range routes {
			if r.Blocked {
				red.Fprintf(w, "  %s %g km [blocked]\n", r.Key, r.Weight)
			} else {
				fmt.Fprintf(w, "  %s %g km\n", r.Key, r.Weight)
			}
		}
		fmt.Fprintln(w)
	}

	// Dangling edges are skipped when drawing
	if len(dangling) > 0 {
		yellow.Fprintf(w, "DANGLING EDGES: %d\n", len(dangling))
		for _, e := range dangling {
			yellow.Fprintf(w, "  %d-%d\n", e.Source, e.Target)
		}
		fmt.Fprintln(w)
	}

	if len(dangling) == 0 && blocked == 0 {
		green.Fprintln(w, "✓ All routes are open and resolvable!")
	}
}

// PrintTrackingPanel prints the tracking panel for a package
func PrintTrackingPanel(w io.Writer, p timeline.Panel) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	blue := color.New(color.FgBlue)
	orange := color.New(color.FgYellow)

	bold.Fprintf(w, "Package #%d", p.PackageID)
	fmt.Fprintf(w, " [%s]\n", p.Status)
	fmt.Fprintf(w, "From: %s\n", p.Sender)
	fmt.Fprintf(w, "To: %s, %s\n", p.Receiver, p.Address)
	fmt.Fprintf(w, "Location: %s\n", p.Location)
	fmt.Fprintln(w)

	bold.Fprintln(w, "VISITED:")
	for i, v := range p.Visited {
		c := green
		if i == len(p.Visited)-1 {
			c = orange
		}
		if v.Clock != "" {
			c.Fprintf(w, "  %s %s\n", v.City, v.Clock)
		} else {
			c.Fprintf(w, "  %s\n", v.City)
		}
	}

	bold.Fprintln(w, "PLANNED:")
	for _, city := range p.Planned {
		blue.Fprintf(w, "  %s\n", city)
	}
}
