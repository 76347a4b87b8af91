package extract

import (
	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/content"
)

// Strategy pairs a schema with the natural-language instructions used to
// prompt structured extraction for one content type.
type Strategy struct {
	Schema       Schema
	Instructions string
}

// builtinStrategies maps each content type to its default strategy.
// Adding a content type is a table entry here plus the enumeration value.
var builtinStrategies = map[content.Type]Strategy{
	content.TypeArticle: {
		Schema: Schema{
			Name: "article",
			Fields: []Field{
				{Name: "title", Type: FieldString, Required: true},
				{Name: "author", Type: FieldString},
				{Name: "publish_date", Type: FieldString},
				{Name: "content", Type: FieldString, Required: true},
				{Name: "tags", Type: FieldList},
				{Name: "category", Type: FieldString},
			},
		},
		Instructions: "Extract article information including title, author, publish date, " +
			"main content, tags, and category from the following content.",
	},
	content.TypeProduct: {
		Schema: Schema{
			Name: "product",
			Fields: []Field{
				{Name: "name", Type: FieldString, Required: true},
				{Name: "price", Type: FieldString},
				{Name: "description", Type: FieldString},
				{Name: "rating", Type: FieldNumber},
				{Name: "reviews", Type: FieldNumber},
				{Name: "availability", Type: FieldString},
				{Name: "images", Type: FieldList},
			},
		},
		Instructions: "Extract product information including name, price, description, " +
			"rating, number of reviews, availability status, and image URLs " +
			"from the following content.",
	},
	content.TypeListing: {
		Schema: Schema{
			Name: "listing_item",
			Fields: []Field{
				{Name: "title", Type: FieldString, Required: true},
				{Name: "url", Type: FieldString, Description: "link to the item's detail page"},
				{Name: "summary", Type: FieldString},
				{Name: "price", Type: FieldString},
			},
			LinkField: "url",
		},
		Instructions: "Extract every item in the listing or search results, one object per item, " +
			"including each item's title, detail page URL, summary, and price if shown.",
	},
	content.TypeProfile: {
		Schema: Schema{
			Name: "profile",
			Fields: []Field{
				{Name: "name", Type: FieldString},
				{Name: "email", Type: FieldString},
				{Name: "phone", Type: FieldString},
				{Name: "address", Type: FieldString},
				{Name: "website", Type: FieldString},
			},
			LinkField: "website",
		},
		Instructions: "Extract contact information including name, email, phone, " +
			"address, and website from the following content.",
	},
	content.TypeUnknown: {
		Schema: Schema{
			Name: "generic",
			Fields: []Field{
				{Name: "title", Type: FieldString},
				{Name: "description", Type: FieldString},
				{Name: "content", Type: FieldString},
				{Name: "links", Type: FieldList},
				{Name: "images", Type: FieldList},
				{Name: "metadata", Type: FieldObject},
			},
			LinkField: "links",
		},
		Instructions: "Extract general information including title, description, " +
			"main content, links, images, and any relevant metadata " +
			"from the following content.",
	},
}

// SelectStrategy returns the strategy for a content type. A caller-
// supplied custom schema always overrides the built-in one; custom
// instructions override the built-in instructions independently. A
// malformed custom schema yields a ConfigurationError.
func SelectStrategy(ct content.Type, custom *Schema, customInstructions string) (Strategy, error) {
	if !ct.Valid() {
		ct = content.TypeUnknown
	}

	strategy := builtinStrategies[ct]

	if custom != nil {
		if err := custom.Validate(); err != nil {
			return Strategy{}, err
		}
		strategy.Schema = *custom
		if customInstructions == "" {
			customInstructions = "Extract all relevant information from the following content. " +
				"Focus on identifying key data points, structured information, " +
				"and important details that would be valuable for analysis."
		}
	}
	if customInstructions != "" {
		strategy.Instructions = customInstructions
	}

	return strategy, nil
}
