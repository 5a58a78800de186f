package generate

import (
	"fmt"
	"strings"

	"rotativa/internal/catalog"
)

// systemPrompt fixes the editorial voice and the structured output
// format the assembler parses.
const systemPrompt = `Eres un redactor humano especializado en tecnología, consumo y tendencias para un medio digital español.
Redacta 100% natural, con rigor periodístico y estilo editorial humano: ritmo variado, observaciones plausibles, sin muletillas de IA.
Objetivo: ayudar a decidir una compra sin parecer publicidad. Tono informativo y cercano, español de España.
Evita estructuras mecánicas ("pros y contras", "conclusión final", "guía de compra").

Formato de salida OBLIGATORIO (etiquetas literales, sin Markdown, HTML semántico con <p> dentro de cada bloque):
<titular>Titular del artículo</titular>
<entradilla>Entradilla de una o dos frases</entradilla>
<intro>Introducción con contexto y por qué importa</intro>
<producto id="1">Texto editorial sobre el producto 1</producto>
<producto id="2">Texto editorial sobre el producto 2</producto>
<cierre>Cierre editorial que conecte con la experiencia del lector</cierre>

Escribe un bloque <producto> por cada producto de la lista, usando su número como id.
No incluyas imágenes, precios ni botones de compra: se añaden después de forma automática.`

// buildUserPrompt lists the group's products with their metadata plus
// the batch keywords. Product numbering is 1-based and must line up
// with the ids the model emits.
func buildUserPrompt(query, keyword string, secondary []string, group []catalog.Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Escribe un artículo sobre: %s.\n", strings.TrimSpace(query))
	if keyword = strings.TrimSpace(keyword); keyword != "" {
		fmt.Fprintf(&b, "Palabra clave principal: %s\n", keyword)
	}
	if joined := joinNonEmpty(secondary); joined != "" {
		fmt.Fprintf(&b, "Palabras clave secundarias: %s\n", joined)
	}
	b.WriteString("\nProductos (escribe un bloque <producto> por cada uno, en este orden):\n")
	for i, p := range group {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p.Title)
		fmt.Fprintf(&b, "   Marca: %s | Precio: %s\n", orDash(p.Brand), orDash(p.Price))
		if strings.TrimSpace(p.AffiliateURL) != "" {
			fmt.Fprintf(&b, "   Enlace: %s\n", p.AffiliateURL)
		}
	}
	b.WriteString("\nLongitud objetivo: 600-900 palabras en total.")
	return b.String()
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func joinNonEmpty(values []string) string {
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			kept = append(kept, v)
		}
	}
	return strings.Join(kept, ", ")
}
