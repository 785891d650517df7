package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"storefront/pkg/domain/model"
)

var (
	ErrGeneratorOutput = errors.New("generator returned output that does not match the schema")
	ErrEmptyPrompt     = errors.New("nothing to ask the assistant about")
)

var (
	recipeSchema       = model.OutputSchema{Name: "recipe_suggestions", Required: []string{"recipes"}}
	shoppingListSchema = model.OutputSchema{Name: "shopping_list", Required: []string{"items"}}
	recommendSchema    = model.OutputSchema{Name: "product_recommendations", Required: []string{"products"}}
)

var prompts = template.Must(template.New("assistant").Funcs(template.FuncMap{"join": strings.Join}).Parse(`
{{define "recipes"}}Suggest up to {{.Limit}} recipes for {{.Servings}} people using these ingredients: {{join .Ingredients ", "}}.
{{- if .Diet}} Every recipe must be {{.Diet}}.{{end}}
Answer with a JSON object {"recipes": [{"title", "ingredients": [..], "steps": [..]}]}.{{end}}

{{define "shopping_list"}}Write a grocery shopping list for {{.Occasion}} for {{.People}} people.
{{- if .Notes}} Keep in mind: {{.Notes}}.{{end}}
Answer with a JSON object {"items": [{"name", "quantity", "category"}]}.{{end}}

{{define "recommend"}}A shopper has these items in their cart: {{join .InCart ", "}}.
Pick up to {{.Limit}} complementary products from this list only: {{join .Available ", "}}.
Answer with a JSON object {"products": [{"name", "reason"}]}.{{end}}
`))

type RecipeRequest struct {
	Ingredients []string `json:"ingredients"`
	Servings    int      `json:"servings"`
	Diet        string   `json:"diet,omitempty"`
}

type Recipe struct {
	Title       string   `json:"title"`
	Ingredients []string `json:"ingredients"`
	Steps       []string `json:"steps"`
}

type ShoppingListRequest struct {
	Occasion string `json:"occasion"`
	People   int    `json:"people"`
	Notes    string `json:"notes,omitempty"`
}

type ShoppingListItem struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Category string `json:"category"`
}

type Recommendation struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Reason    string          `json:"reason"`
}

// AssistantService wraps prompt templates around the external generator. Checkout and
// pricing never depend on it.
type AssistantService interface {
	SuggestRecipes(req RecipeRequest) ([]Recipe, error)
	GenerateShoppingList(req ShoppingListRequest) ([]ShoppingListItem, error)
	RecommendProducts(sessionID string) ([]Recommendation, error)
}

const assistantLimit = 3

func NewAssistantService(generator model.Generator, carts CartService, catalog CatalogService) AssistantService {
	return &assistantService{generator: generator, carts: carts, catalog: catalog}
}

type assistantService struct {
	generator model.Generator
	carts     CartService
	catalog   CatalogService
}

func (s *assistantService) SuggestRecipes(req RecipeRequest) ([]Recipe, error) {
	if len(req.Ingredients) == 0 {
		return nil, ErrEmptyPrompt
	}
	if req.Servings <= 0 {
		req.Servings = 2
	}

	var out struct {
		Recipes []Recipe `json:"recipes"`
	}
	data := map[string]interface{}{
		"Ingredients": req.Ingredients,
		"Servings":    req.Servings,
		"Diet":        req.Diet,
		"Limit":       assistantLimit,
	}
	if err := s.ask("recipes", data, recipeSchema, &out); err != nil {
		return nil, err
	}
	return out.Recipes, nil
}

func (s *assistantService) GenerateShoppingList(req ShoppingListRequest) ([]ShoppingListItem, error) {
	if strings.TrimSpace(req.Occasion) == "" {
		return nil, ErrEmptyPrompt
	}
	if req.People <= 0 {
		req.People = 1
	}

	var out struct {
		Items []ShoppingListItem `json:"items"`
	}
	if err := s.ask("shopping_list", req, shoppingListSchema, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// RecommendProducts only returns suggestions that resolve to a product in the live catalog
// and are not already in the cart.
func (s *assistantService) RecommendProducts(sessionID string) ([]Recommendation, error) {
	cart, err := s.carts.GetCart(sessionID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyPrompt
	}

	products, err := s.catalog.ListProducts(model.ProductFilter{})
	if err != nil {
		return nil, err
	}

	inCart := make([]string, 0, len(cart.Items))
	for _, item := range cart.Items {
		inCart = append(inCart, item.Name)
	}
	byName := make(map[string]model.Product)
	available := make([]string, 0, len(products))
	for _, p := range products {
		if cart.IndexOf(p.ID) >= 0 {
			continue
		}
		byName[strings.ToLower(p.Name)] = p
		available = append(available, p.Name)
	}
	if len(available) == 0 {
		return []Recommendation{}, nil
	}

	var out struct {
		Products []Recommendation `json:"products"`
	}
	data := map[string]interface{}{"InCart": inCart, "Available": available, "Limit": assistantLimit}
	if err := s.ask("recommend", data, recommendSchema, &out); err != nil {
		return nil, err
	}

	result := make([]Recommendation, 0, len(out.Products))
	for _, rec := range out.Products {
		product, ok := byName[strings.ToLower(strings.TrimSpace(rec.Name))]
		if !ok {
			continue
		}
		rec.ProductID = product.ID
		rec.Name = product.Name
		rec.Price = product.Price
		result = append(result, rec)
	}
	return result, nil
}

func (s *assistantService) ask(name string, data interface{}, schema model.OutputSchema, out interface{}) error {
	var prompt bytes.Buffer
	if err := prompts.ExecuteTemplate(&prompt, name, data); err != nil {
		return errors.Wrapf(err, "render %s prompt", name)
	}

	raw, err := s.generator.Generate(strings.TrimSpace(prompt.String()), schema)
	if err != nil {
		return errors.Wrapf(err, "generate %s", schema.Name)
	}
	if err := checkSchema(raw, schema); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrap(ErrGeneratorOutput, err.Error())
	}
	return nil
}

func checkSchema(raw []byte, schema model.OutputSchema) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return errors.Wrap(ErrGeneratorOutput, err.Error())
	}
	for _, name := range schema.Required {
		value, ok := fields[name]
		if !ok {
			return errors.Wrap(ErrGeneratorOutput, fmt.Sprintf("missing %q", name))
		}
		switch strings.TrimSpace(string(value)) {
		case "null", `""`, "[]", "{}":
			return errors.Wrap(ErrGeneratorOutput, fmt.Sprintf("empty %q", name))
		}
	}
	return nil
}
