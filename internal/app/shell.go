package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront-cart/internal/cartsync"
	"github.com/xenking/storefront-cart/internal/client"
	"github.com/xenking/storefront-cart/internal/domain/product"
	"github.com/xenking/storefront-cart/internal/session"
	"github.com/xenking/storefront-cart/internal/wishlist"
)

// shell is the interactive storefront REPL. Every cart command goes through
// the sync manager, so optimistic updates, rollback, and merge behavior are
// exercised exactly as a UI would.
type shell struct {
	manager *cartsync.Manager
	api     *client.Client
	session *session.Session
	wish    *wishlist.List

	catalog map[string]product.Product
	in      io.Reader
	out     io.Writer
}

func newShell(manager *cartsync.Manager, api *client.Client, sess *session.Session, wish *wishlist.List) *shell {
	return &shell{
		manager: manager,
		api:     api,
		session: sess,
		wish:    wish,
		catalog: make(map[string]product.Product),
		in:      os.Stdin,
		out:     os.Stdout,
	}
}

func (s *shell) seedCatalog(products []product.Product) {
	for _, p := range products {
		s.catalog[p.ID] = p
	}
}

// run reads commands line by line until EOF, "quit", or context cancellation.
func (s *shell) run(ctx context.Context) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(s.in)
		for sc.Scan() {
			lines <- sc.Text()
		}
		scanErr <- sc.Err()
	}()

	s.printf("storefront cart shell, type \"help\" for commands\n")
	s.prompt()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				if err := <-scanErr; err != nil {
					return errors.Wrap(err, "read input")
				}
				return nil
			}
			quit, err := s.dispatch(ctx, line)
			if err != nil {
				s.printf("error: %v\n", err)
			}
			if quit {
				return nil
			}
			s.prompt()
		}
	}
}

func (s *shell) dispatch(ctx context.Context, line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		s.printHelp()
	case "list":
		err = s.cmdList(ctx)
	case "cart":
		s.cmdCart()
	case "totals":
		s.cmdTotals()
	case "add":
		err = s.cmdAdd(ctx, args)
	case "update":
		err = s.cmdUpdate(ctx, args)
	case "remove":
		err = s.cmdRemove(ctx, args)
	case "move":
		err = s.cmdMove(ctx, args)
	case "wishlist":
		err = s.cmdWishlist(ctx)
	case "clear":
		err = s.manager.ClearCart(ctx)
	case "coupon":
		err = s.cmdCoupon(ctx, args)
	case "login":
		err = s.cmdLogin(args)
	case "logout":
		s.session.Invalidate()
		s.printf("signed out\n")
	case "merge":
		s.cmdMergeReport()
	case "quit", "exit":
		return true, nil
	default:
		s.printf("unknown command %q, type \"help\"\n", cmd)
	}
	return false, err
}

func (s *shell) printHelp() {
	s.printf(`commands:
  list                              fetch and show the product catalog
  cart                              show the current cart
  totals                            show subtotal, shipping, tax, total
  add <product-id> <qty> [color] [size]
  update <line-id> <qty>            set a line's quantity (0 removes)
  remove <line-id>
  move <line-id>                    move a line to the wishlist
  wishlist                          show saved items
  clear                             empty the cart
  coupon <code>                     apply a coupon (sign in first)
  login <user-id> <token>           sign in, merging the guest cart
  logout
  merge                             show the last merge report
  quit
`)
}

func (s *shell) cmdList(ctx context.Context) error {
	products, err := s.api.List(ctx)
	if err != nil {
		return err
	}
	s.seedCatalog(products)
	for _, p := range products {
		s.printf("%-12s %-30s %s\n", p.ID, p.Name, p.Price.StringFixed(2))
	}
	return nil
}

func (s *shell) cmdCart() {
	snap := s.manager.Snapshot()
	if snap.IsEmpty() {
		s.printf("cart is empty\n")
		return
	}
	for _, l := range snap.Lines {
		variant := ""
		if l.Color != "" || l.Size != "" {
			variant = " (" + strings.TrimSpace(l.Color+" "+l.Size) + ")"
		}
		s.printf("%-12s %dx %s%s @ %s\n", l.ID, l.Quantity, l.Product.Name, variant, l.Product.Price.StringFixed(2))
	}
}

func (s *shell) cmdTotals() {
	t := s.manager.Totals()
	s.printf("items     %d (%d units)\n", t.ItemCount, t.TotalQuantity)
	s.printf("subtotal  %s\n", t.Subtotal.StringFixed(2))
	s.printf("shipping  %s\n", t.Shipping.StringFixed(2))
	s.printf("tax       %s\n", t.Tax.StringFixed(2))
	s.printf("total     %s\n", t.GrandTotal.StringFixed(2))
}

func (s *shell) cmdAdd(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: add <product-id> <qty> [color] [size]")
	}
	p, ok := s.catalog[args[0]]
	if !ok {
		fetched, err := s.api.GetByID(ctx, args[0])
		if err != nil {
			return errors.Wrap(err, "look up product")
		}
		p = *fetched
		s.catalog[p.ID] = p
	}
	qty, err := strconv.Atoi(args[1])
	if err != nil {
		return errors.Wrap(err, "parse quantity")
	}
	var color, size string
	if len(args) > 2 {
		color = args[2]
	}
	if len(args) > 3 {
		size = args[3]
	}
	return s.manager.AddItem(ctx, p, qty, color, size)
}

func (s *shell) cmdUpdate(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: update <line-id> <qty>")
	}
	qty, err := strconv.Atoi(args[1])
	if err != nil {
		return errors.Wrap(err, "parse quantity")
	}
	return s.manager.UpdateQuantity(ctx, args[0], qty)
}

func (s *shell) cmdRemove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: remove <line-id>")
	}
	return s.manager.RemoveItem(ctx, args[0])
}

func (s *shell) cmdMove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: move <line-id>")
	}
	return s.manager.MoveToWishlist(ctx, args[0])
}

func (s *shell) cmdWishlist(ctx context.Context) error {
	entries, err := s.wish.Items(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		s.printf("wishlist is empty\n")
		return nil
	}
	for _, e := range entries {
		s.printf("%-12s %s @ %s\n", e.Product.ID, e.Product.Name, e.Product.Price.StringFixed(2))
	}
	return nil
}

func (s *shell) cmdCoupon(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: coupon <code>")
	}
	return s.manager.ApplyCoupon(ctx, args[0])
}

func (s *shell) cmdLogin(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: login <user-id> <token>")
	}
	// Authenticate fires the guest-to-authenticated merge synchronously.
	s.session.Authenticate(args[0], args[1])
	s.printf("signed in as %s\n", args[0])
	return nil
}

func (s *shell) cmdMergeReport() {
	report := s.manager.LastMergeReport()
	if report == nil {
		s.printf("no merge has run\n")
		return
	}
	s.printf("attempted %d, migrated %d, failed %d\n",
		report.Attempted, len(report.Migrated), len(report.Failed))
	for _, f := range report.Failed {
		s.printf("  failed %s: %v\n", f.ProductID, f.Err)
	}
}

func (s *shell) prompt() {
	s.printf("> ")
}

func (s *shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}
