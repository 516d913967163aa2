// Package loader reads the raw recipe and interaction CSV exports from a
// local directory or an HTTP(S) base URL.
package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"recipe-recommender/internal/core/corpus"
	"recipe-recommender/internal/infrastructure/config"
	"recipe-recommender/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Default export file names.
const (
	DefaultRecipesFile      = "RAW_recipes.csv"
	DefaultInteractionsFile = "RAW_interactions.csv"
)

var (
	recipeColumns = []string{"id", "name", "ingredients", "minutes", "steps", "description"}
	ratingColumns = []string{"recipe_id", "rating"}
)

// Loader 語料讀取器
type Loader struct {
	dataPath         string
	baseURL          string
	recipesFile      string
	interactionsFile string
	client           *resty.Client
}

// New 依設定建立 Loader；設定 base_url 時從遠端讀取
func New(cfg config.CorpusConfig) *Loader {
	l := &Loader{
		dataPath:         cfg.DataPath,
		baseURL:          strings.TrimRight(cfg.BaseURL, "/"),
		recipesFile:      cfg.RecipesFile,
		interactionsFile: cfg.InteractionsFile,
	}
	if l.recipesFile == "" {
		l.recipesFile = DefaultRecipesFile
	}
	if l.interactionsFile == "" {
		l.interactionsFile = DefaultInteractionsFile
	}
	if l.baseURL != "" {
		l.client = resty.New().
			SetBaseURL(l.baseURL).
			SetTimeout(cfg.FetchTimeout).
			SetRetryCount(2).
			SetRetryWaitTime(500 * time.Millisecond).
			SetHeader("User-Agent", "recipe-recommender")
	}
	return l
}

// Describe 資料來源描述，用於日誌
func (l *Loader) Describe() string {
	if l.baseURL != "" {
		return l.baseURL
	}
	return l.dataPath
}

func (l *Loader) open(ctx context.Context, name string) (io.ReadCloser, error) {
	if l.client == nil {
		f, err := os.Open(filepath.Join(l.dataPath, name))
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", name, err)
		}
		return f, nil
	}

	resp, err := l.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get("/" + name)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", name, err)
	}
	body := resp.RawBody()
	if resp.StatusCode() != http.StatusOK {
		if body != nil {
			body.Close()
		}
		return nil, fmt.Errorf("fetch %s: unexpected status %d", name, resp.StatusCode())
	}
	return body, nil
}

// csvTable walks a CSV stream by header name.
type csvTable struct {
	name   string
	reader *csv.Reader
	index  map[string]int
	line   int
}

func newCSVTable(name string, r io.Reader, required []string) (*csvTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", name, err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%s: missing column %q", name, col)
		}
	}
	return &csvTable{name: name, reader: cr, index: index, line: 1}, nil
}

// next returns false at EOF.
func (t *csvTable) next() ([]string, bool, error) {
	rec, err := t.reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, false, nil
	}
	t.line++
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", t.name, err)
	}
	return rec, true, nil
}

func (t *csvTable) field(rec []string, col string) string {
	i := t.index[col]
	if i >= len(rec) {
		return ""
	}
	return rec[i]
}

// LoadRecipes 讀取所有食譜列；id 無法解析時整批失敗
func (l *Loader) LoadRecipes(ctx context.Context) ([]corpus.RecipeRow, error) {
	start := time.Now()
	rc, err := l.open(ctx, l.recipesFile)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	table, err := newCSVTable(l.recipesFile, rc, recipeColumns)
	if err != nil {
		return nil, err
	}

	var rows []corpus.RecipeRow
	for {
		rec, ok, err := table.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if table.line%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		id, err := strconv.ParseInt(strings.TrimSpace(table.field(rec, "id")), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: invalid id: %w", table.name, table.line, err)
		}
		row := corpus.RecipeRow{
			ID:             id,
			Name:           table.field(rec, "name"),
			IngredientsRaw: table.field(rec, "ingredients"),
			StepsRaw:       table.field(rec, "steps"),
		}
		if m, err := strconv.Atoi(strings.TrimSpace(table.field(rec, "minutes"))); err == nil {
			row.Minutes = &m
		}
		if d := table.field(rec, "description"); strings.TrimSpace(d) != "" {
			row.Description = &d
		}
		rows = append(rows, row)
	}

	common.LogInfo("Recipes loaded",
		zap.String("source", l.Describe()),
		zap.String("file", l.recipesFile),
		zap.Int("rows", len(rows)),
		zap.Duration("耗時", time.Since(start)),
	)
	return rows, nil
}

// StreamRatings 逐筆讀取評分事件；rating 或 recipe_id 無法解析時整批失敗
func (l *Loader) StreamRatings(ctx context.Context, fn func(corpus.RatingEvent)) error {
	start := time.Now()
	rc, err := l.open(ctx, l.interactionsFile)
	if err != nil {
		return err
	}
	defer rc.Close()

	table, err := newCSVTable(l.interactionsFile, rc, ratingColumns)
	if err != nil {
		return err
	}

	n := 0
	for {
		rec, ok, err := table.next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if table.line%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		id, err := strconv.ParseInt(strings.TrimSpace(table.field(rec, "recipe_id")), 10, 64)
		if err != nil {
			return fmt.Errorf("%s line %d: invalid recipe_id: %w", table.name, table.line, err)
		}
		rating, err := strconv.ParseFloat(strings.TrimSpace(table.field(rec, "rating")), 64)
		if err != nil {
			return fmt.Errorf("%s line %d: invalid rating: %w", table.name, table.line, err)
		}
		fn(corpus.RatingEvent{RecipeID: id, Rating: rating})
		n++
	}

	common.LogInfo("Ratings streamed",
		zap.String("source", l.Describe()),
		zap.String("file", l.interactionsFile),
		zap.Int("events", n),
		zap.Duration("耗時", time.Since(start)),
	)
	return nil
}
