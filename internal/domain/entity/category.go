package entity

// Category — закрытое перечисление из пяти предметных областей.
// Используется и как атрибут вопроса, и как фильтр при старте сессии.
type Category string

const (
	CategoryOS      Category = "os"
	CategoryDBMS    Category = "dbms"
	CategoryAI      Category = "ai"
	CategoryTesting Category = "testing"
	CategoryDSA     Category = "dsa"
)

// categoryNames — человекочитаемые названия категорий для клиента
var categoryNames = map[Category]string{
	CategoryOS:      "Operating Systems",
	CategoryDBMS:    "Database Management",
	CategoryAI:      "Artificial Intelligence",
	CategoryTesting: "Software Testing",
	CategoryDSA:     "Data Structures & Algorithms",
}

// AllCategories возвращает все категории в фиксированном порядке
func AllCategories() []Category {
	return []Category{CategoryOS, CategoryDBMS, CategoryAI, CategoryTesting, CategoryDSA}
}

// IsValid проверяет, входит ли значение в перечисление
func (c Category) IsValid() bool {
	_, ok := categoryNames[c]
	return ok
}

// DisplayName возвращает человекочитаемое название категории
func (c Category) DisplayName() string {
	return categoryNames[c]
}

// ParseCategories валидирует список тегов с клиента и убирает дубликаты,
// сохраняя порядок. Возвращает false, если встретился неизвестный тег.
// Схема проверяется на границе — до любого обращения к хранилищу.
func ParseCategories(raw []string) ([]Category, bool) {
	seen := make(map[Category]struct{}, len(raw))
	result := make([]Category, 0, len(raw))
	for _, r := range raw {
		c := Category(r)
		if !c.IsValid() {
			return nil, false
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		result = append(result, c)
	}
	return result, true
}
