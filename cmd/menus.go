package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/laelblog/blogctl/client"
	"github.com/laelblog/blogctl/pkg/validation"
	"github.com/spf13/cobra"
)

// menusCmd groups the navigation menu commands.
func menusCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "menus",
		Short: "Manage navigation menus",
	}

	cmd.AddCommand(
		listMenusCmd(a),
		showMenuCmd(a),
		createMenuCmd(a),
		updateMenuCmd(a),
		deleteMenuCmd(a),
		menuItemsCmd(a),
	)

	return cmd
}

func listMenusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List menus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			menus, err := a.client.ListMenus(cmd.Context())
			if err != nil {
				return err
			}
			if len(menus) == 0 && a.output == outputTable {
				cmd.Println("No menus found.")
				return nil
			}
			return a.render(cmd, menus, func(w io.Writer) {
				table := newTable(w, "ID", "Name", "Slug", "Items")
				for _, m := range menus {
					table.Append([]string{strconv.Itoa(m.ID), m.Name, m.Slug, strconv.Itoa(len(m.Items))})
				}
				table.Render()
			})
		},
	}
}

// showMenuCmd prints a menu as a tree. A numeric argument is read through
// the admin API, anything else as a public slug.
func showMenuCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|slug>",
		Short: "Show a menu and its nested items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var menu *client.Menu
			var err error
			if id, convErr := strconv.Atoi(args[0]); convErr == nil {
				menu, err = a.client.GetMenu(cmd.Context(), id)
				if err == nil && len(menu.Items) == 0 {
					menu.Items, err = a.client.ListMenuItems(cmd.Context(), id)
				}
			} else {
				menu, err = a.client.GetMenuBySlug(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}

			roots := client.BuildMenuTree(menu.Items)
			return a.render(cmd, map[string]any{"menu": menu, "tree": roots}, func(w io.Writer) {
				fmt.Fprintf(w, "%s (%s)\n", menu.Name, menu.Slug)
				printMenuTree(w, roots, 1)
			})
		},
	}
}

func printMenuTree(w io.Writer, nodes []*client.MenuNode, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, n := range nodes {
		fmt.Fprintf(w, "%s- [%d] %s -> %s\n", indent, n.ID, n.Label, n.Link())
		printMenuTree(w, n.Children, depth+1)
	}
}

func menuInputFlags(cmd *cobra.Command, in *client.MenuInput) {
	cmd.Flags().StringVarP(&in.Name, "name", "n", "", "Menu name")
	cmd.Flags().StringVar(&in.Slug, "slug", "", "Menu slug")
	cmd.Flags().StringVarP(&in.Description, "description", "d", "", "Description")
}

func createMenuCmd(a *app) *cobra.Command {
	var in client.MenuInput

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateNonEmptyString("name", in.Name); err != nil {
				return invalid(err)
			}
			menu, err := a.client.CreateMenu(cmd.Context(), in)
			if err != nil {
				return err
			}
			cmd.Printf("Created menu %d (%s).\n", menu.ID, menu.Slug)
			return nil
		},
	}

	menuInputFlags(cmd, &in)

	return cmd
}

func updateMenuCmd(a *app) *cobra.Command {
	var in client.MenuInput

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename or describe a menu",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("menu", args[0])
			if err != nil {
				return err
			}
			if err := validation.ValidateNonEmptyString("name", in.Name); err != nil {
				return invalid(err)
			}
			if _, err := a.client.UpdateMenu(cmd.Context(), id, in); err != nil {
				return err
			}
			cmd.Printf("Updated menu %d.\n", id)
			return nil
		},
	}

	menuInputFlags(cmd, &in)

	return cmd
}

func deleteMenuCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a menu and its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("menu", args[0])
			if err != nil {
				return err
			}
			if err := a.client.DeleteMenu(cmd.Context(), id); err != nil {
				return err
			}
			cmd.Printf("Deleted menu %d.\n", id)
			return nil
		},
	}
}

// menuItemsCmd groups the commands on the items of one menu.
func menuItemsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Manage the items of a menu",
	}

	cmd.AddCommand(
		listMenuItemsCmd(a),
		addMenuItemCmd(a),
		updateMenuItemCmd(a),
		deleteMenuItemCmd(a),
		reorderMenuItemsCmd(a),
	)

	return cmd
}

func listMenuItemsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <menu-id>",
		Short: "List the items of a menu",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			menuID, err := parseID("menu", args[0])
			if err != nil {
				return err
			}
			items, err := a.client.ListMenuItems(cmd.Context(), menuID)
			if err != nil {
				return err
			}
			return a.render(cmd, items, func(w io.Writer) {
				table := newTable(w, "ID", "Parent", "Order", "Label", "Type", "Link")
				for _, it := range items {
					table.Append([]string{
						strconv.Itoa(it.ID),
						optionalInt(it.ParentID),
						strconv.Itoa(it.SortOrder),
						it.Label,
						it.Type,
						it.Link(),
					})
				}
				table.Render()
			})
		},
	}
}

// menuItemFields are the flags shared by add and update.
type menuItemFields struct {
	in             client.MenuItemInput
	parent, postID int
}

func (f *menuItemFields) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.in.Label, "label", "l", "", "Text shown in the menu")
	cmd.Flags().StringVarP(&f.in.Type, "type", "t", client.MenuItemHyperlink, "Item type [hyperlink, post]")
	cmd.Flags().StringVarP(&f.in.URL, "url", "u", "", "Target URL of a hyperlink item")
	cmd.Flags().IntVar(&f.postID, "post", 0, "Target post of a post item")
	cmd.Flags().StringVar(&f.in.Target, "target", "", "Link target, e.g. _blank")
	cmd.Flags().StringVar(&f.in.CSSClasses, "class", "", "CSS classes")
	cmd.Flags().IntVar(&f.parent, "parent", 0, "ID of the parent item")
	cmd.Flags().IntVar(&f.in.SortOrder, "order", 0, "Position among siblings")
}

func (f *menuItemFields) input() (client.MenuItemInput, error) {
	in := f.in
	if err := validation.ValidateNonEmptyString("label", in.Label); err != nil {
		return in, invalid(err)
	}
	if err := validation.ValidateMenuItemType(in.Type); err != nil {
		return in, invalid(err)
	}
	switch in.Type {
	case client.MenuItemHyperlink:
		if err := validation.ValidateNonEmptyString("url", in.URL); err != nil {
			return in, invalid(err)
		}
	case client.MenuItemPost:
		if err := validation.ValidateID("post", f.postID); err != nil {
			return in, invalid(err)
		}
		in.PostID = &f.postID
	}
	if f.parent > 0 {
		in.ParentID = &f.parent
	}
	return in, nil
}

func addMenuItemCmd(a *app) *cobra.Command {
	var f menuItemFields

	cmd := &cobra.Command{
		Use:   "add <menu-id>",
		Short: "Add an item to a menu",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			menuID, err := parseID("menu", args[0])
			if err != nil {
				return err
			}
			in, err := f.input()
			if err != nil {
				return err
			}
			item, err := a.client.CreateMenuItem(cmd.Context(), menuID, in)
			if err != nil {
				return err
			}
			cmd.Printf("Added item %d to menu %d.\n", item.ID, menuID)
			return nil
		},
	}

	f.register(cmd)

	return cmd
}

func updateMenuItemCmd(a *app) *cobra.Command {
	var f menuItemFields

	cmd := &cobra.Command{
		Use:   "update <menu-id> <item-id>",
		Short: "Replace a menu item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			menuID, err := parseID("menu", args[0])
			if err != nil {
				return err
			}
			itemID, err := parseID("menu item", args[1])
			if err != nil {
				return err
			}
			in, err := f.input()
			if err != nil {
				return err
			}
			if _, err := a.client.UpdateMenuItem(cmd.Context(), menuID, itemID, in); err != nil {
				return err
			}
			cmd.Printf("Updated item %d.\n", itemID)
			return nil
		},
	}

	f.register(cmd)

	return cmd
}

func deleteMenuItemCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <menu-id> <item-id>",
		Short: "Remove an item from a menu",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			menuID, err := parseID("menu", args[0])
			if err != nil {
				return err
			}
			itemID, err := parseID("menu item", args[1])
			if err != nil {
				return err
			}
			if err := a.client.DeleteMenuItem(cmd.Context(), menuID, itemID); err != nil {
				return err
			}
			cmd.Printf("Deleted item %d.\n", itemID)
			return nil
		},
	}
}

// reorderMenuItemsCmd takes entries of the form id[:parent], listed in the
// wanted order. Positions are assigned per parent.
func reorderMenuItemsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <menu-id> <item[:parent]>...",
		Short: "Set the order and nesting of menu items",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			menuID, err := parseID("menu", args[0])
			if err != nil {
				return err
			}
			order, err := parseMenuOrder(args[1:])
			if err != nil {
				return err
			}
			if err := a.client.ReorderMenuItems(cmd.Context(), menuID, order); err != nil {
				return err
			}
			cmd.Printf("Reordered %d items.\n", len(order))
			return nil
		},
	}
}

func parseMenuOrder(args []string) ([]client.MenuItemOrder, error) {
	next := map[int]int{}
	seen := map[int]bool{}
	order := make([]client.MenuItemOrder, 0, len(args))
	for _, arg := range args {
		idPart, parentPart, nested := strings.Cut(arg, ":")
		id, err := parseID("menu item", idPart)
		if err != nil {
			return nil, err
		}
		if seen[id] {
			return nil, invalid(fmt.Errorf("menu item %d listed twice", id))
		}
		seen[id] = true

		entry := client.MenuItemOrder{ID: id}
		parent := 0
		if nested {
			if parent, err = parseID("parent", parentPart); err != nil {
				return nil, err
			}
			if parent == id {
				return nil, invalid(fmt.Errorf("menu item %d cannot be its own parent", id))
			}
			entry.ParentID = &parent
		}
		entry.SortOrder = next[parent]
		next[parent]++
		order = append(order, entry)
	}
	return order, nil
}
