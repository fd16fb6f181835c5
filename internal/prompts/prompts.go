package prompts

import (
	"fmt"
	"strings"

	"github.com/lehigh-university-libraries/imagemeta/internal/languages"
)

// Categories is the fixed set the generated category must be chosen from
var Categories = []string{
	"Animals",
	"Buildings and Architecture",
	"Business",
	"Drinks",
	"The Environment",
	"States of Mind",
	"Food",
	"Graphic Resources",
	"Hobbies and Leisure",
	"Industry",
	"Landscape",
	"Lifestyle",
	"People",
	"Plants and Flowers",
	"Culture and Religion",
	"Science",
	"Social Issues",
	"Sports",
	"Technology",
	"Transport",
	"Travel",
}

var categoryDescriptions = map[string]string{
	"Animals":                    "Content related to animals, insects, or pets, at home or in the wild.",
	"Buildings and Architecture": "Structures like homes, interiors, offices, temples, barns, factories, and shelters.",
	"Business":                   "People in business settings, offices, business concepts, finance, and money.",
	"Drinks":                     "Content related to beer, wine, spirits, and other drinks.",
	"The Environment":            "Depictions of nature or the places we work and live.",
	"States of Mind":             "Content related to people's emotions and inner voices.",
	"Food":                       "Anything focused on food and eating.",
	"Graphic Resources":          "Backgrounds, textures, and symbols.",
	"Hobbies and Leisure":        "Pastime activities that bring joy and/or relaxation, such as knitting, building model airplanes, and sailing.",
	"Industry":                   "Depictions of work and manufacturing, like building cars, forging steel, producing clothing, or producing energy.",
	"Landscape":                  "Vistas, cities, nature, and other locations.",
	"Lifestyle":                  "The environments and activities of people at home, work, and play.",
	"People":                     "People of all ages, ethnicities, cultures, genders, and abilities.",
	"Plants and Flowers":         "Close-ups of the natural world.",
	"Culture and Religion":       "Depictions of the traditions, beliefs, and cultures of people around the world.",
	"Science":                    "Content with a focus on the applied, natural, medical, and theoretical sciences.",
	"Social Issues":              "Poverty, inequality, politics, violence, and other depictions of social issues.",
	"Sports":                     "Content focused on sports and fitness, including football, basketball, hunting, yoga, and skiing.",
	"Technology":                 "Computers, smartphones, virtual reality, and other tools designed to increase productivity.",
	"Transport":                  "Different types of transportation, including cars, buses, trains, planes, and highway systems.",
	"Travel":                     "Local and worldwide travel, culture, and lifestyles.",
}

// MaxKeywords is the upper bound on keywords requested per image
const MaxKeywords = 49

// keywordDirectiveLead opens the priority-keyword directive
const keywordDirectiveLead = "IMPORTANT: You MUST include the custom keyword"

// restOfInstructions separates the keyword directive from the base template
const restOfInstructions = "The rest of your instructions are as follows:"

var (
	categoriesList = buildCategoriesList()

	jsonOutputInstruction = `IMPORTANT: Your entire output must be a single, valid JSON object with three keys: "title", "keywords", and "category". The "keywords" value should be a single string of comma-separated words.`

	rasterTemplate = fmt.Sprintf(`Write an SEO-optimized title for it, following the format [who or what is in the picture] [with what mood] [what they are doing or what it represents] [against what background] for images of living beings. For other types of images, use the format [what and in what style] [in what colors] [what it represents or what it is used for]. If the picture has a lot of empty space for text, add [with copy space] to the title. Next, provide %[1]d popular single-word keywords divided by image, including the following: What is depicted in the picture (considering the number or uniqueness of the object) Image angles, colors, moods, themes, locations, ages, skin tones, genders Relevant holidays for which this image may be suitable. If the image could be directly or indirectly related to a holiday, be sure to include that holiday. Do not use words that are already in the title; keywords should expand the search terms. The earlier a word appears in the list, the more relevant it should be to the search, meaning it's more likely that the word will be used to search for the image. Separate the keywords with commas. Be sure that you provide no more than %[1]d keywords. %[2]s %[3]s`,
		MaxKeywords, categoriesList, jsonOutputInstruction)

	vectorTemplate = fmt.Sprintf(`You are an expert in stock vector graphics. Your task is to generate metadata for a vector image (like an SVG). Write an SEO-optimized title for it, following the format [object or concept] [style, e.g., flat, isometric, line art] [main colors] [what it represents or is used for]. If the image has a lot of empty space for text, add [with copy space] to the title. Next, provide %[1]d popular single-word keywords. Crucially, include keywords related to vector graphics such as: vector, illustration, icon, graphic, design, element, symbol, clipart, editable, scalable. Also include keywords for: What is depicted in the picture, dominant colors, artistic style, themes, concepts, and potential use cases (e.g., web design, presentation, logo). Do not use words that are already in the title; keywords should expand the search terms. The earlier a word appears in the list, the more relevant it should be to the search. Separate the keywords with commas. Be sure that you provide no more than %[1]d keywords. %[2]s %[3]s`,
		MaxKeywords, categoriesList, jsonOutputInstruction)
)

func buildCategoriesList() string {
	var b strings.Builder
	b.WriteString("You also should choose the Category for the image should be match one from the list below. Category:")
	for i, c := range Categories {
		fmt.Fprintf(&b, " %d. %s: %s", i+1, c, categoryDescriptions[c])
	}
	return b.String()
}

// LanguageDirective names the language every generated field must be written in
func LanguageDirective(languageCode string) string {
	return fmt.Sprintf("The entire response, including title, keywords, and category names, MUST be in %s.", languages.DisplayName(languageCode))
}

// Build composes the metadata prompt for one image.
// A non-blank customKeyword is placed first as a priority directive.
func Build(languageCode string, isVector bool, customKeyword string) string {
	base := rasterTemplate
	if isVector {
		base = vectorTemplate
	}

	languageInstruction := LanguageDirective(languageCode)

	keyword := strings.TrimSpace(customKeyword)
	if keyword != "" {
		return fmt.Sprintf(`%s "%s" in both the generated title and the generated list of keywords. Prioritize this keyword. %s %s %s`,
			keywordDirectiveLead, keyword, languageInstruction, restOfInstructions, base)
	}
	return languageInstruction + " " + base
}

// Translation builds the literal-translation prompt for a keyword
func Translation(keyword, fromCode, toCode string) string {
	return fmt.Sprintf(`Translate the following keyword/phrase from %s to %s and return only the translated text, without any additional explanations or quotation marks: "%s"`,
		languages.DisplayName(fromCode), languages.DisplayName(toCode), keyword)
}

// IsCategory reports whether name is one of the fixed categories
func IsCategory(name string) bool {
	for _, c := range Categories {
		if strings.EqualFold(c, strings.TrimSpace(name)) {
			return true
		}
	}
	return false
}
