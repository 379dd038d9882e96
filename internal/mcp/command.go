package mcp

import (
	"strings"

	"github.com/spf13/cast"

	"github.com/suPer8Hu/mcp-gateway/internal/common"
)

const (
	ActionListTables      = "list_tables"
	ActionDescribeTable   = "describe_table"
	ActionExecuteQuery    = "execute_query"
	ActionGetTableContent = "get_table_content"
)

// Actions lists every supported action name in a stable order.
var Actions = []string{ActionListTables, ActionDescribeTable, ActionExecuteQuery, ActionGetTableContent}

// Command is one of ListTables, DescribeTable, ExecuteQuery or GetTableContent.
type Command interface {
	Action() string
	command()
}

type ListTables struct{}

type DescribeTable struct {
	Table string
}

type ExecuteQuery struct {
	Query string
}

type GetTableContent struct {
	Table          string
	Limit          *int
	Offset         *int
	OrderBy        string
	OrderDirection string
}

func (ListTables) Action() string      { return ActionListTables }
func (DescribeTable) Action() string   { return ActionDescribeTable }
func (ExecuteQuery) Action() string    { return ActionExecuteQuery }
func (GetTableContent) Action() string { return ActionGetTableContent }

func (ListTables) command()      {}
func (DescribeTable) command()   {}
func (ExecuteQuery) command()    {}
func (GetTableContent) command() {}

// ParseCommand builds a Command from an action name and loose parameters, as
// they arrive from JSON bodies or model tool calls.
func ParseCommand(action string, params map[string]any) (Command, error) {
	switch action {
	case ActionListTables:
		return ListTables{}, nil

	case ActionDescribeTable:
		table, err := requiredString(params, "table_name")
		if err != nil {
			return nil, err
		}
		return DescribeTable{Table: table}, nil

	case ActionExecuteQuery:
		query, err := requiredString(params, "query")
		if err != nil {
			return nil, err
		}
		return ExecuteQuery{Query: query}, nil

	case ActionGetTableContent:
		table, err := requiredString(params, "table_name")
		if err != nil {
			return nil, err
		}
		limit, err := optionalInt(params, "limit", 1)
		if err != nil {
			return nil, err
		}
		offset, err := optionalInt(params, "offset", 0)
		if err != nil {
			return nil, err
		}
		return GetTableContent{
			Table:          table,
			Limit:          limit,
			Offset:         offset,
			OrderBy:        cast.ToString(params["order_by"]),
			OrderDirection: cast.ToString(params["order_direction"]),
		}, nil

	default:
		return nil, common.Validationf("Acción no válida: %s", action)
	}
}

func requiredString(params map[string]any, key string) (string, error) {
	v := strings.TrimSpace(cast.ToString(params[key]))
	if v == "" {
		return "", common.Validationf("Se requiere el parámetro '%s'", key)
	}
	return v, nil
}

// optionalInt reads an integer parameter no smaller than least.
func optionalInt(params map[string]any, key string, least int) (*int, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return nil, nil
	}
	if s, isStr := raw.(string); isStr && strings.TrimSpace(s) == "" {
		return nil, nil
	}
	n, err := cast.ToIntE(raw)
	if err != nil {
		return nil, common.Validationf("El parámetro '%s' debe ser un número entero", key)
	}
	if n < least {
		if least == 0 {
			return nil, common.Validationf("El parámetro '%s' no puede ser negativo", key)
		}
		return nil, common.Validationf("El parámetro '%s' debe ser mayor o igual a %d", key, least)
	}
	return &n, nil
}
