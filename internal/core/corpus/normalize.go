package corpus

import (
	"context"
	"strings"

	"recipe-recommender/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// NormalizeIngredients 將字串編碼的食材清單轉為小寫、去空白的序列；格式錯誤回傳空序列
func NormalizeIngredients(raw string) []string {
	values, ok := parseListLiteral(raw)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

// NormalizeSteps 將字串編碼的步驟清單轉為去空白的序列；格式錯誤回傳空序列
func NormalizeSteps(raw string) []string {
	values, ok := parseListLiteral(raw)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

// dedupe keeps the first occurrence of each value.
func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// NormalizeRow 將單筆原始資料轉為 Recipe；名稱為空時 ok 為 false
func NormalizeRow(row RecipeRow) (Recipe, bool) {
	name := strings.TrimSpace(row.Name)
	if name == "" {
		return Recipe{}, false
	}

	recipe := Recipe{
		ID:          row.ID,
		Name:        name,
		Ingredients: dedupe(NormalizeIngredients(row.IngredientsRaw)),
		Steps:       NormalizeSteps(row.StepsRaw),
		Description: DefaultDescription,
	}
	if row.Minutes != nil {
		recipe.Minutes = *row.Minutes
	}
	if row.Description != nil && strings.TrimSpace(*row.Description) != "" {
		recipe.Description = *row.Description
	}
	return recipe, true
}

// NormalizeStats 正規化統計
type NormalizeStats struct {
	Rows          int `json:"rows"`
	Kept          int `json:"kept"`
	MissingName   int `json:"missing_name"`
	NoIngredients int `json:"no_ingredients"`
	DuplicateIDs  int `json:"duplicate_ids"`
}

// NormalizeRows 平行正規化所有資料列，並排除無名稱、無食材與重複 ID 的食譜。
// 輸出保留來源順序。
func NormalizeRows(ctx context.Context, rows []RecipeRow, workers int) ([]Recipe, NormalizeStats, error) {
	stats := NormalizeStats{Rows: len(rows)}
	if workers < 1 {
		workers = 1
	}

	type slot struct {
		recipe Recipe
		ok     bool
	}
	slots := make([]slot, len(rows))

	chunk := (len(rows) + workers - 1) / workers
	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < len(rows); start += chunk {
		start, end := start, min(start+chunk, len(rows))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if i%1024 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				r, ok := NormalizeRow(rows[i])
				slots[i] = slot{recipe: r, ok: ok}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stats, err
	}

	recipes := make([]Recipe, 0, len(rows))
	seen := make(map[int64]struct{}, len(rows))
	for _, s := range slots {
		switch {
		case !s.ok:
			stats.MissingName++
		case !s.recipe.HasIngredients():
			stats.NoIngredients++
		default:
			if _, dup := seen[s.recipe.ID]; dup {
				stats.DuplicateIDs++
				continue
			}
			seen[s.recipe.ID] = struct{}{}
			recipes = append(recipes, s.recipe)
		}
	}
	stats.Kept = len(recipes)

	if stats.DuplicateIDs > 0 {
		common.LogWarn("Duplicate recipe ids dropped",
			zap.Int("duplicates", stats.DuplicateIDs),
		)
	}

	return recipes, stats, nil
}
