// Command transmute-doc wraps a small card catalogue with transmute and
// prints its Swagger 2.0 document.
//
// Run:
//
//	go run ./cmd/transmute-doc                  # JSON to stdout
//	go run ./cmd/transmute-doc -yaml            # YAML to stdout
//	go run ./cmd/transmute-doc -o swagger.json  # write to file
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bjaus/transmute"
)

func main() {
	yamlFlag := flag.Bool("yaml", false, "Write YAML instead of JSON")
	outFlag := flag.String("o", "", "Output file (default stdout)")
	debugFlag := flag.Bool("debug", false, "Log registration events")
	flag.Parse()

	level := slog.LevelInfo
	if *debugFlag {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	reg := transmute.NewRegistry()
	if err := register(reg, newStore()); err != nil {
		slog.Error("wrap failed", "err", err)
		os.Exit(1)
	}

	spec, err := reg.Spec(transmute.DefaultContext,
		transmute.WithTitle("Card Catalogue"),
		transmute.WithVersion("1.0.0"),
		transmute.WithInfoDescription("A sample API documented by transmute."),
		transmute.WithBasePath("/api"),
	)
	if err != nil {
		slog.Error("spec generation failed", "err", err)
		os.Exit(1)
	}

	if err := write(spec, *outFlag, *yamlFlag); err != nil {
		slog.Error("write failed", "err", err)
		os.Exit(1)
	}
}

func write(spec *transmute.Spec, path string, asYAML bool) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	encode := spec.WriteJSON
	if asYAML {
		encode = spec.WriteYAML
	}
	if err := encode(w); err != nil {
		return err
	}
	if path != "" {
		slog.Info("spec written", "path", path)
	}
	return nil
}

// ---------- domain ----------

// Color is a card's color.
type Color string

// Card is a card in the catalogue.
type Card struct {
	ID          string    `json:"id"`
	Name        string    `json:"name" required:"true" validate:"min=1,max=100" doc:"display name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price" validate:"gte=0"`
	Colors      []Color   `json:"colors,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewCard is the body accepted when creating a card.
type NewCard struct {
	Name        string  `json:"name" validate:"required,min=1,max=100"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price" validate:"gte=0"`
	Colors      []Color `json:"colors,omitempty"`
}

var (
	errNotFound  = errors.New("card not found")
	errDuplicate = errors.New("card already exists")
)

type store struct {
	mu    sync.Mutex
	cards map[string]Card
}

func newStore() *store {
	return &store{cards: map[string]Card{
		"c1": {ID: "c1", Name: "Ace", Price: 1, Colors: []Color{"red"}, CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}}
}

func (s *store) list(_ context.Context, color string, limit int) []Card {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Card, 0, len(s.cards))
	for _, c := range s.cards {
		if color != "" && !hasColor(c, color) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *store) get(_ context.Context, id string) (Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cards[id]
	if !ok {
		return Card{}, errNotFound
	}
	return c, nil
}

func (s *store) create(_ context.Context, id string, card NewCard) (Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cards[id]; ok {
		return Card{}, errDuplicate
	}
	c := Card{
		ID:          id,
		Name:        card.Name,
		Description: card.Description,
		Price:       card.Price,
		Colors:      card.Colors,
		CreatedAt:   time.Now().UTC(),
	}
	s.cards[id] = c
	return c, nil
}

func (s *store) remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cards[id]; !ok {
		return errNotFound
	}
	delete(s.cards, id)
	return nil
}

func hasColor(c Card, color string) bool {
	for _, cc := range c.Colors {
		if strings.EqualFold(string(cc), color) {
			return true
		}
	}
	return false
}

func register(reg *transmute.Registry, s *store) error {
	cards := transmute.NewGroup("/cards",
		transmute.WithGroupTags("cards"),
		transmute.WithGroupRegistry(reg),
	)

	wraps := []struct {
		fn   any
		opts []transmute.Option
	}{
		{s.list, []transmute.Option{
			transmute.WithName("listCards"),
			transmute.WithParams("color", "limit"),
			transmute.WithDefault("color", ""),
			transmute.WithDefault("limit", 50),
			transmute.WithParamDescription("color", "only cards of this color"),
			transmute.WithPaths(""),
			transmute.WithDescription("List cards."),
		}},
		{s.get, []transmute.Option{
			transmute.WithName("getCard"),
			transmute.WithParams("id"),
			transmute.WithPaths("/{id}"),
			transmute.WithDescription("Fetch a card."),
			transmute.WithErrors(errNotFound),
		}},
		{s.create, []transmute.Option{
			transmute.WithName("createCard"),
			transmute.WithParams("id", "card"),
			transmute.WithMethods(http.MethodPost),
			transmute.WithPaths("/{id}"),
			transmute.WithSuccessCode(http.StatusCreated),
			transmute.WithDescription("Create a card."),
			transmute.WithErrors(errDuplicate),
		}},
		{s.remove, []transmute.Option{
			transmute.WithName("deleteCard"),
			transmute.WithParams("id"),
			transmute.WithMethods(http.MethodDelete),
			transmute.WithPaths("/{id}"),
			transmute.WithDescription("Delete a card."),
			transmute.WithErrors(errNotFound),
		}},
	}

	for _, w := range wraps {
		if _, err := cards.Wrap(w.fn, w.opts...); err != nil {
			return err
		}
	}
	return nil
}
