package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// varTag знаходить {{var "name" default required}} у шаблоні
var varTag = regexp.MustCompile(`\{\{var\s+"([^"]+)"\s+("[^"]*"|[^\s}]+)\s+(true|false)\s*\}\}`)

// GenerateConfigFromTemplate генерує HCL конфігурацію з шаблону використовуючи змінні
func GenerateConfigFromTemplate(templatePath, outputPath string, vars map[string]interface{}) error {
	content, err := os.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}

	rendered, err := processVarTags(string(content), vars)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Конфіг може містити секрети, тому лише для власника
	if err := os.WriteFile(outputPath, []byte(rendered), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// processVarTags підставляє змінні замість тегів. Обов'язкові теги без значення дають помилку.
func processVarTags(content string, vars map[string]interface{}) (string, error) {
	var missing []string

	out := varTag.ReplaceAllStringFunc(content, func(match string) string {
		m := varTag.FindStringSubmatch(match)
		name, defaultValue, required := m[1], m[2], m[3] == "true"

		if value, ok := vars[name]; ok {
			return formatValue(value)
		}

		if required && (defaultValue == "" || defaultValue == `""`) {
			missing = append(missing, name)
			return match
		}

		return formatValue(parseDefaultValue(defaultValue))
	})

	if len(missing) > 0 {
		sort.Strings(missing)
		return "", fmt.Errorf("required template variables not set: %s", strings.Join(missing, ", "))
	}
	return out, nil
}

// formatValue форматує значення для HCL
func formatValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strconv.Quote(v)
	case []string:
		quoted := make([]string, 0, len(v))
		for _, item := range v {
			quoted = append(quoted, strconv.Quote(strings.TrimSpace(item)))
		}
		return "[" + strings.Join(quoted, ", ") + "]"
	case int, int32, int64:
		return fmt.Sprintf("%d", v)
	case float32, float64:
		return strconv.FormatFloat(toFloat(v), 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return strconv.Quote(fmt.Sprintf("%v", v))
	}
}

func toFloat(v interface{}) float64 {
	switch f := v.(type) {
	case float32:
		return float64(f)
	case float64:
		return f
	}
	return 0
}

// parseDefaultValue парсить дефолтне значення з шаблону
func parseDefaultValue(defaultValue string) interface{} {
	if strings.HasPrefix(defaultValue, `"`) && strings.HasSuffix(defaultValue, `"`) && len(defaultValue) >= 2 {
		return defaultValue[1 : len(defaultValue)-1]
	}
	if intVal, err := strconv.Atoi(defaultValue); err == nil {
		return intVal
	}
	if floatVal, err := strconv.ParseFloat(defaultValue, 64); err == nil {
		return floatVal
	}
	if boolVal, err := strconv.ParseBool(defaultValue); err == nil {
		return boolVal
	}
	return defaultValue
}
