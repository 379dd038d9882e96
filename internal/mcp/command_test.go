package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suPer8Hu/mcp-gateway/internal/common"
)

func TestParseCommand(t *testing.T) {
	cmd, err := ParseCommand("list_tables", nil)
	require.NoError(t, err)
	assert.Equal(t, ListTables{}, cmd)

	cmd, err = ParseCommand("describe_table", map[string]any{"table_name": "productos"})
	require.NoError(t, err)
	assert.Equal(t, DescribeTable{Table: "productos"}, cmd)

	cmd, err = ParseCommand("execute_query", map[string]any{"query": "SELECT 1"})
	require.NoError(t, err)
	assert.Equal(t, ExecuteQuery{Query: "SELECT 1"}, cmd)
}

func TestParseCommand_TableContentCoercesNumbers(t *testing.T) {
	cmd, err := ParseCommand("get_table_content", map[string]any{
		"table_name":      "productos",
		"limit":           float64(10), // JSON numbers decode as float64
		"offset":          "5",
		"order_by":        "id",
		"order_direction": "desc",
	})
	require.NoError(t, err)

	got, ok := cmd.(GetTableContent)
	require.True(t, ok)
	require.NotNil(t, got.Limit)
	require.NotNil(t, got.Offset)
	assert.Equal(t, 10, *got.Limit)
	assert.Equal(t, 5, *got.Offset)
	assert.Equal(t, "id", got.OrderBy)
	assert.Equal(t, "desc", got.OrderDirection)
}

func TestParseCommand_OptionalParamsAbsent(t *testing.T) {
	cmd, err := ParseCommand("get_table_content", map[string]any{"table_name": "productos", "limit": nil})
	require.NoError(t, err)
	got := cmd.(GetTableContent)
	assert.Nil(t, got.Limit)
	assert.Nil(t, got.Offset)
}

func TestParseCommand_Errors(t *testing.T) {
	cases := []struct {
		action string
		params map[string]any
		msg    string
	}{
		{"describe_table", map[string]any{}, "Se requiere el parámetro 'table_name'"},
		{"describe_table", map[string]any{"table_name": "  "}, "Se requiere el parámetro 'table_name'"},
		{"execute_query", nil, "Se requiere el parámetro 'query'"},
		{"get_table_content", map[string]any{}, "Se requiere el parámetro 'table_name'"},
		{"get_table_content", map[string]any{"table_name": "t", "limit": "many"}, "El parámetro 'limit' debe ser un número entero"},
		{"get_table_content", map[string]any{"table_name": "t", "offset": -1}, "El parámetro 'offset' no puede ser negativo"},
		{"get_table_content", map[string]any{"table_name": "t", "limit": 0}, "El parámetro 'limit' debe ser mayor o igual a 1"},
		{"get_table_content", map[string]any{"table_name": "t", "limit": "-3"}, "El parámetro 'limit' debe ser mayor o igual a 1"},
		{"drop_everything", nil, "Acción no válida: drop_everything"},
	}
	for _, tc := range cases {
		_, err := ParseCommand(tc.action, tc.params)
		require.Error(t, err, tc.action)
		assert.True(t, common.IsKind(err, common.KindValidation), tc.action)
		assert.Equal(t, tc.msg, err.Error())
	}
}
