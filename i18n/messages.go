package i18n

// Translation keys used by the form engine. Keys are the English text, so an
// untranslated key still reads well.
const (
	MsgRequired          = "This field is required."
	MsgMinItems          = "should NOT have fewer than {{minItems}} items"
	MsgMaxItems          = "should NOT have more than {{maxItems}} items"
	MsgMinLength         = "should NOT be shorter than {{minLength}} characters"
	MsgMaxLength         = "should NOT be longer than {{maxLength}} characters"
	MsgMinimum           = "should be >= {{min}}"
	MsgMaximum           = "should be <= {{max}}"
	MsgPattern           = "should match pattern \"{{pattern}}\""
	MsgEnum              = "should be equal to one of the allowed values"
	MsgConst             = "should be equal to constant \"{{const}}\""
	MsgInvalidType       = "should be {{type}}"
	MsgAlreadyTaken      = "The value is already taken."
	MsgLookupPending     = "The value could not be checked, please try again."
	MsgUniqueKeys        = "Some items have the same value."
	MsgSpecificValues    = "The number of items with this value must be between {{min}} and {{max}}."
	MsgDatesGreaterThan  = "The first date must be before the second date."
	MsgExpressionInvalid = "The value is invalid."
)

var builtin = map[string]map[string]string{
	"fr": {
		MsgRequired:          "Ce champ est obligatoire.",
		MsgMinItems:          "ne doit PAS avoir moins de {{minItems}} éléments",
		MsgMaxItems:          "ne doit PAS avoir plus de {{maxItems}} éléments",
		MsgMinLength:         "ne doit PAS être plus court que {{minLength}} caractères",
		MsgMaxLength:         "ne doit PAS être plus long que {{maxLength}} caractères",
		MsgMinimum:           "doit être >= {{min}}",
		MsgMaximum:           "doit être <= {{max}}",
		MsgPattern:           "doit correspondre au motif \"{{pattern}}\"",
		MsgEnum:              "doit être égal à une des valeurs autorisées",
		MsgConst:             "doit être égal à la constante \"{{const}}\"",
		MsgInvalidType:       "doit être de type {{type}}",
		MsgAlreadyTaken:      "Cette valeur est déjà utilisée.",
		MsgLookupPending:     "La valeur n'a pas pu être vérifiée, veuillez réessayer.",
		MsgUniqueKeys:        "Certains éléments ont la même valeur.",
		MsgSpecificValues:    "Le nombre d'éléments avec cette valeur doit être compris entre {{min}} et {{max}}.",
		MsgDatesGreaterThan:  "La première date doit précéder la seconde.",
		MsgExpressionInvalid: "La valeur est invalide.",
	},
	"de": {
		MsgRequired:         "Dieses Feld ist obligatorisch.",
		MsgAlreadyTaken:     "Dieser Wert ist bereits vergeben.",
		MsgLookupPending:    "Der Wert konnte nicht geprüft werden, bitte erneut versuchen.",
		MsgUniqueKeys:       "Einige Elemente haben denselben Wert.",
		MsgDatesGreaterThan: "Das erste Datum muss vor dem zweiten liegen.",
	},
}
