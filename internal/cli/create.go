package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/northgate/atrium/internal/app"
	"github.com/northgate/atrium/internal/listview"
	"github.com/northgate/atrium/internal/resource"
)

func createCmd(g *globals) *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "create <kind>",
		Short: "Create one resource from field=value pairs",
		Long: `Create posts a new resource and prints its id. Values that parse as
JSON (true, 3, ["a"]) are sent typed; anything else is sent as a string.`,
		Example: `  atrium create category --set name=Markets --set isActive=true`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := resource.ParseKind(args[0])
			if err != nil {
				return err
			}
			d, _ := resource.Lookup(kind)
			fields, err := parseFields(sets)
			if err != nil {
				return err
			}

			e, err := loadEnv(cmd, g)
			if err != nil {
				return err
			}
			clients, err := app.Dial(e.cfg, e.log)
			if err != nil {
				return err
			}
			v := listview.New(listview.Options{
				Descriptor: d,
				Backend:    clients.API,
				Logger:     e.log.Named("listview"),
			})
			defer v.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), e.cfg.RequestTimeout*2)
			defer cancel()
			created, err := v.Create(ctx, fields)
			if err != nil {
				return err
			}
			if created == nil {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "created")
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), created.ID)
			return err
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "field as field=value (repeatable)")
	return cmd
}

func parseFields(pairs []string) (map[string]any, error) {
	fields := make(map[string]any, len(pairs))
	for _, raw := range pairs {
		field, value, ok := strings.Cut(raw, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, fmt.Errorf("field %q: want field=value", raw)
		}
		var typed any
		if err := json.Unmarshal([]byte(value), &typed); err == nil {
			fields[field] = typed
			continue
		}
		fields[field] = value
	}
	return fields, nil
}
