// cmd/cli/views.go — the resource "views": each subcommand mounts a CRUD
// sync controller over the transport client, exactly one per resource.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/shweta76555/deskcli/internal/crudsync"
	"github.com/shweta76555/deskcli/internal/model"
)

// identityView is the printable projection of an Identity. Comparable so
// whoami can tell whether enrichment changed anything.
type identityView struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role"`
	IsExpired bool   `json:"isExpired"`
}

func viewOf(i model.Identity) identityView {
	role := i.Role
	if role == "" {
		// The backend treats accounts without a role claim as plain users.
		role = "User"
	}
	return identityView{
		ID:        i.SubjectID,
		Name:      i.DisplayName,
		Email:     i.Email,
		Role:      role,
		IsExpired: i.IsExpired,
	}
}

func displayOf(i model.Identity) string {
	switch {
	case i.DisplayName != "":
		return i.DisplayName
	case i.Email != "":
		return i.Email
	case i.SubjectID != "":
		return i.SubjectID
	}
	return "(unknown)"
}

// requireSession enforces the navigation contract for protected views:
// no usable session means "go log in", before any request is issued.
func (a *app) requireSession(ctx context.Context) {
	if _, err := a.resolver.Resolve(ctx); err != nil {
		failSession(err)
	}
}

func validateDraft(d model.ItemDraft) error { return d.Validate() }

// ownItems is the authenticated user's own-items view.
func (a *app) ownItems() *crudsync.Controller[model.ProjectItem, model.ItemDraft] {
	return crudsync.New(crudsync.Ops[model.ProjectItem, model.ItemDraft]{
		List:   a.client.MyItems,
		Create: a.client.CreateItem,
		Update: a.client.UpdateItem,
		Delete: a.client.DeleteItem,
	}, validateDraft)
}

// adminProjects is the admin panel's all-projects view.
func (a *app) adminProjects() *crudsync.Controller[model.ProjectItem, model.ItemDraft] {
	return crudsync.New(crudsync.Ops[model.ProjectItem, model.ItemDraft]{
		List:   a.client.Items,
		Delete: a.client.DeleteItem,
	}, validateDraft)
}

// adminUsers is the admin panel's read-only users view.
func (a *app) adminUsers() *crudsync.Controller[model.User, struct{}] {
	return crudsync.New(crudsync.Ops[model.User, struct{}]{
		List: a.client.Users,
	}, nil)
}

func dumpList[T any](c interface {
	Snapshot() ([]T, crudsync.State, string)
}, emptyMsg string) {
	items, state, msg := c.Snapshot()
	if state == crudsync.Failed {
		fmt.Fprintln(os.Stderr, msg)
		os.Exit(1)
	}
	if len(items) == 0 {
		fmt.Println(emptyMsg)
		return
	}
	printJSON(items)
}

func (a *app) cmdItems(ctx context.Context) {
	a.requireSession(ctx)
	c := a.ownItems()
	_ = c.List(ctx)
	dumpList[model.ProjectItem](c, "no items yet")
}

func (a *app) cmdProjects(ctx context.Context) {
	a.requireSession(ctx)
	c := a.adminProjects()
	_ = c.List(ctx)
	dumpList[model.ProjectItem](c, "no projects found")
}

func (a *app) cmdUsers(ctx context.Context) {
	a.requireSession(ctx)
	c := a.adminUsers()
	_ = c.List(ctx)
	dumpList[model.User](c, "no users found")
}

func (a *app) cmdAdd(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	title := fs.String("title", "", "item title")
	desc := fs.String("desc", "", "item description")
	_ = fs.Parse(args)

	a.requireSession(ctx)
	c := a.ownItems()
	if err := c.Create(ctx, model.ItemDraft{Title: *title, Description: *desc}); err != nil {
		fail(err)
	}
	dumpList[model.ProjectItem](c, "no items yet")
}

func (a *app) cmdEdit(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	id := fs.Int64("id", 0, "item id")
	title := fs.String("title", "", "new title")
	desc := fs.String("desc", "", "new description")
	_ = fs.Parse(args)
	if *id <= 0 {
		fmt.Fprintln(os.Stderr, "need -id")
		os.Exit(1)
	}

	a.requireSession(ctx)
	c := a.ownItems()
	c.BeginEdit(*id, model.ItemDraft{Title: *title, Description: *desc})
	if err := c.SubmitEdit(ctx); err != nil {
		fail(err)
	}
	dumpList[model.ProjectItem](c, "no items yet")
}

func (a *app) cmdRemove(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("rm", flag.ExitOnError)
	id := fs.Int64("id", 0, "item id")
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	_ = fs.Parse(args)
	if *id <= 0 {
		fmt.Fprintln(os.Stderr, "need -id")
		os.Exit(1)
	}

	a.requireSession(ctx)
	c := a.ownItems()
	confirm := func() bool { return *yes || promptYes("Delete this project? [y/N]: ") }
	if err := c.Delete(ctx, *id, confirm); err != nil {
		fail(err)
	}
	if _, state, _ := c.Snapshot(); state == crudsync.Idle {
		fmt.Println("aborted")
		return
	}
	dumpList[model.ProjectItem](c, "no items yet")
}

func promptYes(prompt string) bool {
	fmt.Fprint(os.Stderr, prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
