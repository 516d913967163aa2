package corpus

// DefaultDescription 無描述時使用的預設文字
const DefaultDescription = "No description available."

// RecipeRow 外部資料來源解碼後的原始食譜列
type RecipeRow struct {
	ID             int64
	Name           string
	IngredientsRaw string
	Minutes        *int
	StepsRaw       string
	Description    *string
}

// RatingEvent 單筆評分事件
type RatingEvent struct {
	RecipeID int64
	Rating   float64
}

// Recipe 正規化後的食譜，建圖後不可變更
type Recipe struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Ingredients []string `json:"ingredients"`
	Minutes     int      `json:"minutes"`
	Steps       []string `json:"instructions"`
	Description string   `json:"description"`
}

// HasIngredients 食譜是否仍有可用於建圖的食材
func (r *Recipe) HasIngredients() bool {
	return len(r.Ingredients) > 0
}
