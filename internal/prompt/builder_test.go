package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-chat/internal/catalog"
	"storefront-chat/internal/history"
	"storefront-chat/internal/llm"
)

func intPtr(v int) *int { return &v }

var testProducts = []catalog.Product{
	{Name: "Vestido Floral", Price: 100, Discount: 20, Sizes: []string{"S", "M"}, Colors: []string{"rojo", "azul"}, Category: "vestidos", Rating: 4.7, Reviews: 12, Stock: intPtr(3)},
	{Name: "Blusa Lino", Price: 30, Sizes: []string{"M"}, Category: "blusas", Stock: intPtr(50)},
}

func TestSystemRendersCatalog(t *testing.T) {
	b, err := New("", Store{Name: "Moda Sol", Contact: "WhatsApp"}, history.NewManager(20))
	require.NoError(t, err)

	sys, err := b.System(testProducts)
	require.NoError(t, err)

	assert.Equal(t, llm.RoleSystem, sys.Role)
	assert.Contains(t, sys.Content, "Moda Sol")
	assert.Contains(t, sys.Content, "WhatsApp")
	assert.Contains(t, sys.Content, "Vestido Floral: $80.00 (antes $100.00, 20% de descuento)")
	assert.Contains(t, sys.Content, "Tallas: S, M")
	assert.Contains(t, sys.Content, "Colores: rojo, azul")
	assert.Contains(t, sys.Content, "Categoría: vestidos")
	assert.Contains(t, sys.Content, "Valoración: 4.7/5 (12 reseñas)")

	lines := strings.Split(sys.Content, "\n")
	for _, line := range lines {
		if strings.Contains(line, "Vestido Floral") {
			assert.Contains(t, line, "¡Últimas unidades!")
		}
		if strings.Contains(line, "Blusa Lino") {
			assert.NotContains(t, line, "¡Últimas unidades!")
			assert.NotContains(t, line, "descuento")
		}
	}
}

func TestSystemWithoutProducts(t *testing.T) {
	b, err := New("", Store{Name: "Moda Sol"}, history.NewManager(20))
	require.NoError(t, err)

	sys, err := b.System(nil)
	require.NoError(t, err)
	assert.Contains(t, sys.Content, "catálogo no está disponible")
}

func TestCustomTemplate(t *testing.T) {
	b, err := New("Tienda {{.Store}}: {{len .Products}} productos", Store{Name: "X"}, history.NewManager(20))
	require.NoError(t, err)

	sys, err := b.System(testProducts)
	require.NoError(t, err)
	assert.Equal(t, "Tienda X: 2 productos", sys.Content)
}

func TestNewRejectsBrokenTemplate(t *testing.T) {
	_, err := New("{{.Store", Store{}, history.NewManager(20))
	assert.Error(t, err)
}

func TestBuildOrdersSystemThenHistory(t *testing.T) {
	h := history.NewManager(20)
	h.AppendUser("s", "hola")
	h.AppendAssistant("s", "¡Hola!")
	h.AppendUser("s", "busco un vestido")

	b, err := New("", Store{Name: "Moda Sol"}, h)
	require.NoError(t, err)

	msgs, err := b.Build("s", testProducts)
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, llm.RoleSystem, msgs[0].Role)
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "hola"}, msgs[1])
	assert.Equal(t, llm.Message{Role: llm.RoleAssistant, Content: "¡Hola!"}, msgs[2])
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "busco un vestido"}, msgs[3])
}
