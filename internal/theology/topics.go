package theology

// topics is the fixed list offered for daily lessons.
var topics = []string{
	"La Soberanía de Dios",
	"Los Atributos de Dios",
	"La Doctrina de la Trinidad",
	"La Providencia Divina",
	"La Caída del Hombre",
	"El Pecado Original",
	"La Elección y Predestinación",
	"La Expiación Limitada",
	"La Gracia Irresistible",
	"La Perseverancia de los Santos",
	"La Justificación por la Fe",
	"La Santificación",
	"La Doctrina de los Pactos",
	"El Bautismo",
	"La Cena del Señor",
	"El Gobierno de la Iglesia",
	"La Segunda Venida de Cristo",
	"El Juicio Final",
	"La Resurrección",
	"El Estado Eterno",
}

// Topics returns a copy of the lesson topics.
func Topics() []string {
	return append([]string(nil), topics...)
}

// QuickAction is a canned question offered to new users.
type QuickAction struct {
	Label  string
	Prompt string
}

// QuickActions are the shortcuts shown next to the chat input.
var QuickActions = []QuickAction{
	{"¿Qué es la teología reformada?", "¿Qué es la teología reformada y cuáles son sus principios fundamentales?"},
	{"Explica TULIP", "Explica los cinco puntos del calvinismo (TULIP) según la tradición reformada"},
	{"Doctrina de la Iglesia", "¿Cuál es la doctrina reformada sobre la Iglesia y sus sacramentos?"},
	{"Lección del día", "Genera una lección diaria sobre teología sistemática"},
	{"Búsqueda bíblica", "Busca referencias bíblicas sobre la justificación por la fe"},
	{"Confesión de Westminster", "Explica los puntos principales de la Confesión de Fe de Westminster"},
}
