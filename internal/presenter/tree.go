package presenter

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/MrSnakeDoc/zonewatch/internal/domain"
)

// TreeRow is one line of the indented zone tree
type TreeRow struct {
	Name  string
	State string
}

// Tree flattens zones into rows:
//
//	zone-1            available
//	|- fake_host-1
//	| |- nova-compute enabled :-) 2012-12-26T14:45:25.000000
func Tree(zones []domain.Zone) []TreeRow {
	var rows []TreeRow
	for _, z := range zones {
		state := "not available"
		if z.Available {
			state = "available"
		}
		rows = append(rows, TreeRow{Name: z.Name, State: state})

		z.Hosts.Each(func(host string, services *domain.Services) bool {
			rows = append(rows, TreeRow{Name: "|- " + host, State: ""})
			for pair := services.Oldest(); pair != nil; pair = pair.Next() {
				rows = append(rows, TreeRow{Name: "| |- " + pair.Key, State: pair.Value.StatusLine()})
			}
			return true
		})
	}
	return rows
}

// RenderTree writes the tree of zones as aligned text
func RenderTree(w io.Writer, zones []domain.Zone) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, row := range Tree(zones) {
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", row.Name, row.State); err != nil {
			return err
		}
	}
	return tw.Flush()
}
