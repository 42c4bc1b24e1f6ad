// Package i18n holds the user-facing messages of the blog. Messages are keyed
// by their English text; other languages are registered in a catalog.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Flash messages.
const (
	MsgLoginRequired    = "You must log in to continue"
	MsgNoPermissionVerb = "You don't have permission to %s this post"
	MsgNoPermission     = "You don't have permission to perform this operation"
	MsgPublished        = "You published the post “%s”"
	MsgScheduleCancel   = "If you cancel this operation, the post will be saved as a draft"
	MsgSavedDraft       = "You saved the post “%s” as a draft"
	MsgUpdated          = "You successfully updated the post “%s”"
	MsgScheduled        = "You scheduled the publication of the post “%s”"
	MsgDeleted          = "You deleted the post “%s”"
	MsgLoggedIn         = "Welcome back, %s"
	MsgLoggedOut        = "You have been logged out"
	MsgRegistered       = "Your account has been created, you can now log in"
)

// Verbs completing MsgNoPermissionVerb.
const (
	VerbEdit    = "edit"
	VerbDelete  = "delete"
	VerbPublish = "publish"
)

// Form errors.
const (
	ErrRequired        = "This field is required"
	ErrTooLong         = "Ensure this value has at most %d characters"
	ErrInvalidDate     = "Enter a valid date and time"
	ErrBadCredentials  = "Invalid username or password"
	ErrEmailTaken      = "This email is already registered"
	ErrUsernameTaken   = "This username is already taken"
	ErrInvalidAccount  = "Enter a valid email, a username of 3 to 20 letters, digits or underscores and a password of 6 to 32 characters"
	ErrPasswordsDiffer = "The two passwords do not match"
	ErrTagTooLong      = "Tag “%s” is longer than %d characters"
)

var italian = map[string]string{
	MsgLoginRequired:    "È necessario compiere l'accesso per procedere",
	MsgNoPermissionVerb: "Non hai le autorizzazioni necessarie per %s questo post",
	MsgNoPermission:     "Non hai le autorizzazioni necessarie per compiere questa operazione",
	MsgPublished:        "Hai pubblicato il post “%s”",
	MsgScheduleCancel:   "Se decidi di annullare questa operazione, il post verrà salvato come bozza",
	MsgSavedDraft:       "Hai salvato in bozze il post “%s”",
	MsgUpdated:          "Hai modificato con successo il post “%s”",
	MsgScheduled:        "Hai programmato la pubblicazione del post “%s”",
	MsgDeleted:          "Hai eliminato il post “%s”",
	MsgLoggedIn:         "Bentornato, %s",
	MsgLoggedOut:        "Sei uscito",
	MsgRegistered:       "Il tuo account è stato creato, ora puoi accedere",

	VerbEdit:    "modificare",
	VerbDelete:  "eliminare",
	VerbPublish: "pubblicare",

	ErrRequired:        "Questo campo è obbligatorio",
	ErrTooLong:         "Assicurati che questo valore non superi i %d caratteri",
	ErrInvalidDate:     "Inserisci una data e un'ora valide",
	ErrBadCredentials:  "Nome utente o password non validi",
	ErrEmailTaken:      "Questa email è già registrata",
	ErrUsernameTaken:   "Questo nome utente è già in uso",
	ErrInvalidAccount:  "Inserisci un'email valida, un nome utente di 3-20 lettere, cifre o trattini bassi e una password di 6-32 caratteri",
	ErrPasswordsDiffer: "Le due password non coincidono",
	ErrTagTooLong:      "Il tag “%s” supera i %d caratteri",
}

// labels are the page texts used by the templates.
var labels = []struct{ key, it string }{
	{"Posts", "Post"},
	{"Tags", "Tag"},
	{"Draft", "Bozza"},
	{"Scheduled for %s", "Programmato per il %s"},
	{"Published on %s", "Pubblicato il %s"},
	{"Updated %d days after publication", "Modificato %d giorni dopo la pubblicazione"},
	{"by %s", "di %s"},
	{"New post", "Nuovo post"},
	{"Edit", "Modifica"},
	{"Delete", "Elimina"},
	{"Publish", "Pubblica"},
	{"Schedule", "Programma"},
	{"Save draft", "Salva bozza"},
	{"Save changes", "Salva le modifiche"},
	{"Cancel", "Annulla"},
	{"Title", "Titolo"},
	{"Subtitle", "Sottotitolo"},
	{"Body", "Testo"},
	{"Publish under my name", "Pubblica a mio nome"},
	{"Only you will be able to edit or delete a post published under your name", "Solo tu potrai modificare o eliminare un post pubblicato a tuo nome"},
	{"Search or add a tag", "Cerca o aggiungi un tag"},
	{"Publication date", "Data di pubblicazione"},
	{"Choose when the post “%s” becomes public", "Scegli quando vuoi che sia reso pubblico il post “%s”"},
	{"Are you sure you want to delete the post “%s”?", "Sei sicuro di voler eliminare il post “%s”?"},
	{"Posts tagged “%s”", "Post con tag “%s”"},
	{"No posts yet", "Ancora nessun post"},
	{"Previous", "Precedente"},
	{"Next", "Successiva"},
	{"Page %d of %d", "Pagina %d di %d"},
	{"Log in", "Accedi"},
	{"Log out", "Esci"},
	{"Register", "Registrati"},
	{"Username or email", "Nome utente o email"},
	{"Username", "Nome utente"},
	{"Email", "Email"},
	{"Password", "Password"},
	{"Repeat password", "Ripeti la password"},
	{"Page not found", "Pagina non trovata"},
	{"Something went wrong", "Qualcosa è andato storto"},
}

var cat = newCatalog()

func newCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, msg := range italian {
		if err := b.SetString(language.Italian, key, msg); err != nil {
			panic(err)
		}
	}
	for _, l := range labels {
		if err := b.SetString(language.Italian, l.key, l.it); err != nil {
			panic(err)
		}
	}
	return b
}

// Supported lists the languages with a catalog, English first.
var Supported = []language.Tag{language.English, language.Italian}

// NewPrinter returns a printer for lang. Unknown languages fall back to English.
func NewPrinter(lang string) *message.Printer {
	tag, _, _ := language.NewMatcher(Supported).Match(language.Make(lang))
	base, _ := tag.Base()
	return message.NewPrinter(language.Make(base.String()), message.Catalog(cat))
}
