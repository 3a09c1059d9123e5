package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gorustyt/navcore/navigation"
)

func PathCmd() *cobra.Command {
	var (
		in       inputFlags
		from, to string
		agent    string
	)
	c := &cobra.Command{
		Use:   "path",
		Short: "build a navmesh and print the path between two points",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseVec3(from)
			if err != nil {
				return err
			}
			end, err := parseVec3(to)
			if err != nil {
				return err
			}
			s, g, logger, err := in.load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if agent == "" {
				agent = s.Agents[0].Name
			}
			a, ok := s.Agent(agent)
			if !ok {
				return fmt.Errorf("unknown agent %q", agent)
			}
			p := navigation.ProfileOf(a)
			mgr := navigation.NewManager(logger)
			if err := mgr.Build(context.Background(), g, s, p); err != nil {
				return err
			}
			path, found := mgr.FindPath(p, start, end)
			if !found {
				return errors.New("no path found")
			}
			out := cmd.OutOrStdout()
			for _, v := range path {
				fmt.Fprintf(out, "%f %f %f\n", v.X(), v.Y(), v.Z())
			}
			return nil
		},
	}
	in.register(c)
	c.Flags().StringVar(&from, "from", "", "start position x,y,z")
	c.Flags().StringVar(&to, "to", "", "end position x,y,z")
	c.Flags().StringVar(&agent, "agent", "", "agent name, defaults to the first configured agent")
	c.MarkFlagRequired("from")
	c.MarkFlagRequired("to")
	return c
}
