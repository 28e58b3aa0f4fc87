package cache

// KeyPrefix - префиксы для разных типов ключей
type KeyPrefix string

const (
	PrefixRateLimit KeyPrefix = "rate"  // rate:clientIP
	PrefixLogin     KeyPrefix = "login" // login:clientIP
)

// KeyBuilder - построитель ключей кэша
type KeyBuilder struct {
	namespace string // Опциональный namespace, чтобы делить Redis с другими сервисами
}

func NewKeyBuilder(namespace string) *KeyBuilder {
	return &KeyBuilder{namespace: namespace}
}

// Build создает ключ с префиксом и опциональным namespace
func (k *KeyBuilder) Build(prefix KeyPrefix, parts ...string) string {
	key := string(prefix)

	if k.namespace != "" {
		key = k.namespace + ":" + key
	}

	for _, part := range parts {
		key += ":" + part
	}

	return key
}

// RateLimit создает ключ для общего лимита по IP
func (k *KeyBuilder) RateLimit(clientIP string) string {
	return k.Build(PrefixRateLimit, clientIP)
}

// Login создает ключ для лимита попыток входа
func (k *KeyBuilder) Login(clientIP string) string {
	return k.Build(PrefixLogin, clientIP)
}
