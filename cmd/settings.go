package cmd

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/laelblog/blogctl/client"
	"github.com/laelblog/blogctl/pkg/clierr"
	"github.com/laelblog/blogctl/pkg/validation"
	"github.com/spf13/cobra"
)

// themeInfo describes a theme the site frontend ships with.
type themeInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	Author      string `json:"author"`
	Description string `json:"description"`
}

// themeRegistry lists the themes the frontend can render.
var themeRegistry = []themeInfo{
	{
		ID:          client.DefaultTheme,
		Name:        "Default Theme",
		Version:     "1.0.0",
		Author:      "Lael",
		Description: "Modern and clean default theme with gradient accents",
	},
}

func themeIDs() []string {
	ids := make([]string, len(themeRegistry))
	for i, t := range themeRegistry {
		ids[i] = t.ID
	}
	return ids
}

// settingsCmd groups the site settings commands.
func settingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and change site settings",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get [key]",
			Short: "Show all settings, or one",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				settings, err := a.client.SiteSettings(cmd.Context())
				if err != nil {
					return err
				}
				if len(args) == 1 {
					value, ok := settings[args[0]]
					if !ok {
						return clierr.New(clierr.NotFound, fmt.Sprintf("Setting %s is not set.", args[0]), nil)
					}
					cmd.Println(value)
					return nil
				}
				return a.render(cmd, settings, func(w io.Writer) {
					keys := make([]string, 0, len(settings))
					for k := range settings {
						keys = append(keys, k)
					}
					slices.Sort(keys)
					table := newTable(w, "Key", "Value")
					for _, k := range keys {
						table.Append([]string{k, oneLine(settings[k], 80)})
					}
					table.Render()
				})
			},
		},
		&cobra.Command{
			Use:   "set <key=value>...",
			Short: "Change one or more settings",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				settings, err := parseSettings(args)
				if err != nil {
					return err
				}
				if theme, ok := settings["active_theme"]; ok {
					if err := validation.ValidateTheme(theme, themeIDs()); err != nil {
						return invalid(err)
					}
				}
				if err := a.client.UpdateSiteSettings(cmd.Context(), settings); err != nil {
					return err
				}
				cmd.Printf("Updated %d settings.\n", len(settings))
				return nil
			},
		},
		&cobra.Command{
			Use:   "public",
			Short: "Show the settings visitors can see",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				pub, err := a.client.PublicSiteSettings(cmd.Context())
				if err != nil {
					return err
				}
				return a.render(cmd, pub, func(w io.Writer) {
					fmt.Fprintf(w, "Title: %s\n", pub.SiteTitle)
					fmt.Fprintf(w, "Tagline: %s\n", pub.SiteTagline)
					fmt.Fprintf(w, "Theme: %s\n", pub.ActiveTheme)
					if pub.FaviconURL != "" {
						fmt.Fprintf(w, "Favicon: %s\n", pub.FaviconURL)
					}
				})
			},
		},
	)

	return cmd
}

func parseSettings(args []string) (map[string]string, error) {
	settings := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, invalid(fmt.Errorf("expected key=value, got %q", arg))
		}
		settings[key] = value
	}
	return settings, nil
}

// themesCmd groups the theme commands.
func themesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "themes",
		Short: "List and activate site themes",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List available themes and mark the active one",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				active, err := a.client.ActiveTheme(cmd.Context())
				if err != nil {
					return err
				}
				return a.render(cmd, map[string]any{"active": active, "themes": themeRegistry}, func(w io.Writer) {
					table := newTable(w, "", "ID", "Name", "Version", "Description")
					for _, t := range themeRegistry {
						mark := ""
						if t.ID == active {
							mark = "*"
						}
						table.Append([]string{mark, t.ID, t.Name, t.Version, t.Description})
					}
					table.Render()
				})
			},
		},
		&cobra.Command{
			Use:   "activate <theme>",
			Short: "Switch the site to a theme",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := validation.ValidateTheme(args[0], themeIDs()); err != nil {
					return invalid(err)
				}
				if err := a.client.SetActiveTheme(cmd.Context(), args[0]); err != nil {
					return err
				}
				cmd.Printf("Activated theme %s.\n", args[0])
				return nil
			},
		},
	)

	return cmd
}
