package dishes

import (
	"strconv"
	"time"

	"github.com/jrsteele09/wakelni-client/apiclient"
	"github.com/jrsteele09/wakelni-client/internal/utils"
)

// Dish is a meal published by a cook.
type Dish struct {
	ID          string        `json:"id"`
	Name        string        `json:"nom"`
	Description string        `json:"description"`
	Ingredients string        `json:"ingredients"`
	Price       utils.Decimal `json:"prix"`
	Stock       int           `json:"stock"`
	City        string        `json:"ville"`
	Address     string        `json:"adresse"`
	Active      bool          `json:"est_actif"`
	Tags        string        `json:"tags"`
	PhotoURL    *string       `json:"photo_url"`
	Cook        string        `json:"cuisinier"` // cook's username
	CreatedAt   time.Time     `json:"cree_le"`
}

// Photo is an image uploaded with a dish.
type Photo struct {
	Filename string
	Content  []byte
}

// NewDish is the payload for publishing a dish.
type NewDish struct {
	Name        string
	Description string
	Ingredients string
	Price       string
	Stock       int
	City        string
	Address     string
	Tags        string
	Inactive    bool
	Photo       *Photo
}

// DishUpdate changes only the non-nil fields.
type DishUpdate struct {
	Name        *string
	Description *string
	Ingredients *string
	Price       *string
	Stock       *int
	City        *string
	Address     *string
	Tags        *string
	Active      *bool
	Photo       *Photo
}

func (d NewDish) form() *apiclient.Form {
	form := apiclient.NewForm().
		Field("nom", d.Name).
		Field("description", d.Description).
		Field("prix", d.Price).
		Field("stock", strconv.Itoa(d.Stock)).
		Field("ville", d.City).
		Field("adresse", d.Address).
		Field("ingredients", d.Ingredients).
		Field("est_actif", strconv.FormatBool(!d.Inactive))
	if d.Tags != "" {
		form.Field("tags", d.Tags)
	}
	if d.Photo != nil {
		form.File("photo", d.Photo.Filename, d.Photo.Content)
	}
	return form
}

func (u DishUpdate) empty() bool {
	return u.Name == nil && u.Description == nil && u.Ingredients == nil && u.Price == nil &&
		u.Stock == nil && u.City == nil && u.Address == nil && u.Tags == nil && u.Active == nil && u.Photo == nil
}

func (u DishUpdate) form() *apiclient.Form {
	form := apiclient.NewForm()
	text := []struct {
		name  string
		value *string
	}{
		{"nom", u.Name},
		{"description", u.Description},
		{"prix", u.Price},
		{"ville", u.City},
		{"adresse", u.Address},
		{"ingredients", u.Ingredients},
		{"tags", u.Tags},
	}
	for _, field := range text {
		if field.value != nil {
			form.Field(field.name, *field.value)
		}
	}
	if u.Stock != nil {
		form.Field("stock", strconv.Itoa(utils.Value(u.Stock)))
	}
	if u.Active != nil {
		form.Field("est_actif", strconv.FormatBool(utils.Value(u.Active)))
	}
	if u.Photo != nil {
		form.File("photo", u.Photo.Filename, u.Photo.Content)
	}
	return form
}
