package language

var portugueseStopWords = []string{
	"a", "o", "e", "as", "os", "um", "uma", "uns", "umas",
	"de", "do", "da", "dos", "das", "em", "no", "na", "nos", "nas", "num", "numa",
	"ao", "aos", "para", "pra", "pro", "por", "pelo", "pela", "pelos", "pelas",
	"com", "sem", "sob", "sobre", "entre", "ate", "apos", "antes", "depois", "desde",
	"que", "se", "como", "mas", "ou", "nem", "porque", "pois", "quando", "onde", "qual", "quais",
	"quem", "cujo", "cuja", "entao", "assim", "tambem", "ainda", "ja", "so", "nao", "sim",
	"mais", "menos", "muito", "muita", "muitos", "muitas", "pouco", "pouca", "tao", "bem",
	"seu", "sua", "seus", "suas", "meu", "minha", "meus", "minhas", "nosso", "nossa",
	"ele", "ela", "eles", "elas", "eu", "voce", "voces", "lhe", "lhes", "me", "te",
	"isso", "isto", "esse", "essa", "esses", "essas", "este", "esta", "estes", "estas",
	"aquele", "aquela", "aqueles", "aquelas", "desse", "dessa", "deste", "desta",
	"nesse", "nessa", "neste", "nesta", "dele", "dela", "deles", "delas",
	"ser", "sao", "foi", "era", "sera", "seja", "sendo", "sido", "estar", "estao", "estava",
	"ter", "tem", "tinha", "tera", "ha", "haver", "vai", "vao", "ir", "pode", "podem", "deve", "devem",
	"cada", "todo", "toda", "todos", "todas", "tudo", "nada", "outro", "outra", "outros", "outras",
	"mesmo", "mesma", "aqui", "ali", "la", "agora", "sempre", "nunca", "quanto", "quanta",
}

var portugueseSuffixes = []string{
	"amentos", "imentos", "amento", "imento",
	"idades", "idade", "mente",
	"acoes", "icoes", "acao", "icao",
	"ancias", "encias", "ancia", "encia",
	"istas", "ista", "ismos", "ismo",
	"aveis", "iveis", "avel", "ivel",
	"osos", "osas", "oso", "osa",
	"ezas", "eza",
	"s",
}

var portugueseEndings = []Ending{
	{From: "oe", To: "ao"},
	{From: "ae", To: "ao"},
	{From: "ai", To: "al"},
	{From: "ei", To: "el"},
}

var portugueseSynonyms = []Synonym{
	{Word: "melhor", Replacement: "mais indicado"},
	{Word: "melhores", Replacement: "mais indicados"},
	{Word: "barato", Replacement: "em conta"},
	{Word: "baratos", Replacement: "em conta"},
	{Word: "comprar", Replacement: "adquirir"},
	{Word: "importante", Replacement: "essencial"},
	{Word: "bom", Replacement: "adequado"},
	{Word: "boa", Replacement: "adequada"},
	{Word: "ideal", Replacement: "mais adequado"},
	{Word: "facil", Replacement: "simples"},
	{Word: "rapido", Replacement: "agil"},
	{Word: "seguro", Replacement: "confiavel"},
	{Word: "seguranca", Replacement: "protecao"},
	{Word: "confortavel", Replacement: "aconchegante"},
	{Word: "pratico", Replacement: "funcional"},
	{Word: "escolher", Replacement: "definir"},
	{Word: "recomendamos", Replacement: "sugerimos"},
	{Word: "produto", Replacement: "item"},
	{Word: "modelo", Replacement: "versao"},
	{Word: "preco", Replacement: "valor"},
}

var englishStopWords = []string{
	"a", "an", "the", "and", "or", "but", "if", "of", "to", "in", "on", "at", "by", "for", "with",
	"from", "into", "over", "under", "about", "as", "is", "are", "was", "were", "be", "been", "being",
	"it", "its", "this", "that", "these", "those", "you", "your", "we", "our", "they", "their",
	"he", "she", "his", "her", "not", "no", "yes", "can", "will", "would", "should", "could",
	"has", "have", "had", "do", "does", "did", "so", "than", "then", "too", "very", "just",
	"also", "more", "most", "some", "any", "all", "each", "every", "which", "what", "when",
	"where", "who", "how", "why", "there", "here",
}

var englishSuffixes = []string{
	"ations", "ation", "ingly", "edly", "ments", "ment", "ness", "ings", "ing", "ies", "ed", "es", "s",
}

var englishSynonyms = []Synonym{
	{Word: "best", Replacement: "most suitable"},
	{Word: "cheap", Replacement: "affordable"},
	{Word: "buy", Replacement: "purchase"},
	{Word: "important", Replacement: "essential"},
	{Word: "good", Replacement: "solid"},
	{Word: "easy", Replacement: "simple"},
	{Word: "fast", Replacement: "quick"},
	{Word: "safe", Replacement: "reliable"},
}

// PortugueseBR is the primary pack used for editorial content.
func PortugueseBR() *Pack {
	return NewPack("pt-br", portugueseStopWords, portugueseSuffixes, portugueseEndings, portugueseSynonyms)
}

// English is a lighter pack used for English-language posts.
func English() *Pack {
	return NewPack("en", englishStopWords, englishSuffixes, nil, englishSynonyms)
}
