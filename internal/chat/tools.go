package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/suPer8Hu/mcp-gateway/internal/ai"
	"github.com/suPer8Hu/mcp-gateway/internal/mcp"
)

const ToolName = "database_operation"

const systemPrompt = `Eres un asistente con acceso a una base de datos PostgreSQL a través de la herramienta "database_operation".
Acciones disponibles:
- list_tables: lista las tablas del esquema público.
- describe_table: describe las columnas de una tabla (requiere table_name).
- execute_query: ejecuta una sentencia SQL (requiere query). Las operaciones sobre bases de datos, esquemas y roles no están permitidas.
- get_table_content: devuelve filas de una tabla (requiere table_name; opcionales limit, offset, order_by, order_direction).
Consulta la estructura antes de escribir SQL y responde en el idioma del usuario.`

// databaseTool is the single function tool offered to the model.
func databaseTool() ai.Tool {
	return ai.Tool{
		Type: "function",
		Function: ai.FunctionDef{
			Name:        ToolName,
			Description: "Ejecuta una operación sobre la base de datos",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"action": map[string]any{
						"type":        "string",
						"enum":        mcp.Actions,
						"description": "Operación a ejecutar",
					},
					"table_name": map[string]any{
						"type":        "string",
						"description": "Tabla objetivo (describe_table, get_table_content)",
					},
					"query": map[string]any{
						"type":        "string",
						"description": "Sentencia SQL (execute_query)",
					},
					"limit": map[string]any{
						"type":        "integer",
						"description": "Máximo de filas (get_table_content)",
					},
					"offset": map[string]any{
						"type":        "integer",
						"description": "Filas a omitir (get_table_content)",
					},
					"order_by": map[string]any{
						"type":        "string",
						"description": "Columna de orden (get_table_content)",
					},
					"order_direction": map[string]any{
						"type": "string",
						"enum": []string{"asc", "desc"},
					},
				},
				"required": []string{"action"},
			},
		},
	}
}

// decodeArguments accepts a JSON object or a JSON string holding one.
func decodeArguments(raw json.RawMessage) (map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return map[string]any{}, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("argumentos inválidos: %w", err)
		}
		if strings.TrimSpace(s) == "" {
			return map[string]any{}, nil
		}
		raw = []byte(s)
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("argumentos inválidos: %w", err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// encodeArguments normalizes arguments to the JSON-string form providers
// expect when a tool call is echoed back.
func encodeArguments(raw json.RawMessage) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		return raw
	}
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	b, _ := json.Marshal(string(raw))
	return b
}
