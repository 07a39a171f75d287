// Package options validates the free-form, provider-specific options tree
// on an AliasSpec before any model loading occurs.
package options

import (
	"modelhub/pkg/types"
)

// Validate checks options against the known schema for providerID and task.
// Unknown providers are accepted unconditionally, to allow third-party
// extension: only the providers named below are schema-checked.
func Validate(providerID string, task types.Task, options map[string]any) error {
	switch providerID {
	case "remote/openai", "remote/gemini", "remote/mistral", "remote/voyageai":
		return validateStringKeysOnly(providerID, options, "api_key_env")
	case "remote/anthropic":
		return validateStringKeysOnly(providerID, options, "api_key_env", "anthropic_version")
	case "remote/cohere":
		return validateStringKeysOnly(providerID, options, "api_key_env", "input_type")
	case "remote/azure-openai":
		return validateStringKeysOnly(providerID, options, "api_key_env", "resource_name", "api_version")
	case "remote/vertexai":
		return validateVertexAI(providerID, task, options)
	case "local/candle", "local/fastembed":
		return validateStringKeysOnly(providerID, options, "cache_dir")
	case "local/mistralrs":
		return validateMistralRS(providerID, task, options)
	case "local/echo":
		if options != nil {
			if err := rejectUnknownKeys(providerID, options, "cache_dir", "embedding_dimensions"); err != nil {
				return err
			}
			if err := requireStringKeys(providerID, options, "cache_dir"); err != nil {
				return err
			}
		}
		return requireEmbeddingDimensions(providerID, task, options)
	case "remote/httpdemo":
		if options == nil {
			return types.ErrConfig("option %q is required for provider %q", "endpoint", providerID)
		}
		if err := rejectUnknownKeys(providerID, options, "endpoint", "api_key_env"); err != nil {
			return err
		}
		if _, ok := options["endpoint"]; !ok {
			return types.ErrConfig("option %q is required for provider %q", "endpoint", providerID)
		}
		return requireStringKeys(providerID, options, "endpoint", "api_key_env")
	default:
		return nil
	}
}

func rejectUnknownKeys(providerID string, options map[string]any, allowed ...string) error {
	for key := range options {
		if !contains(allowed, key) {
			return types.ErrConfig("unknown option %q for provider %q", key, providerID)
		}
	}
	return nil
}

func requireStringKeys(providerID string, options map[string]any, keys ...string) error {
	for _, key := range keys {
		v, ok := options[key]
		if !ok {
			continue
		}
		if _, isString := v.(string); !isString {
			return types.ErrConfig("option %q for provider %q must be a string", key, providerID)
		}
	}
	return nil
}

func requirePositiveUint(providerID string, options map[string]any, key string) error {
	v, ok := options[key]
	if !ok {
		return nil
	}
	n, ok := asUint64(v)
	if !ok {
		return types.ErrConfig("option %q for provider %q must be a positive integer", key, providerID)
	}
	if n == 0 {
		return types.ErrConfig("option %q for provider %q must be greater than 0", key, providerID)
	}
	return nil
}

func requireEmbeddingDimensions(providerID string, task types.Task, options map[string]any) error {
	if _, ok := options["embedding_dimensions"]; !ok {
		return nil
	}
	if err := requirePositiveUint(providerID, options, "embedding_dimensions"); err != nil {
		return err
	}
	if task != types.TaskEmbed {
		return types.ErrConfig("option %q is only valid for embed tasks", "embedding_dimensions")
	}
	return nil
}

// validateStringKeysOnly covers the common shape: every allowed key, if
// present, must hold a string value; anything else is rejected.
func validateStringKeysOnly(providerID string, options map[string]any, allowed ...string) error {
	if options == nil {
		return nil
	}
	if err := rejectUnknownKeys(providerID, options, allowed...); err != nil {
		return err
	}
	return requireStringKeys(providerID, options, allowed...)
}

func validateVertexAI(providerID string, task types.Task, options map[string]any) error {
	if options == nil {
		return nil
	}
	allowed := []string{"api_token_env", "project_id", "location", "publisher", "embedding_dimensions"}
	if err := rejectUnknownKeys(providerID, options, allowed...); err != nil {
		return err
	}
	if err := requireStringKeys(providerID, options, "api_token_env", "project_id", "location", "publisher"); err != nil {
		return err
	}
	return requireEmbeddingDimensions(providerID, task, options)
}

func validateMistralRS(providerID string, task types.Task, options map[string]any) error {
	if options == nil {
		return nil
	}
	allowed := []string{
		"isq", "force_cpu", "paged_attention", "max_num_seqs", "chat_template",
		"tokenizer_json", "embedding_dimensions", "gguf_files",
	}
	if err := rejectUnknownKeys(providerID, options, allowed...); err != nil {
		return err
	}
	if err := requireStringKeys(providerID, options, "isq", "chat_template", "tokenizer_json"); err != nil {
		return err
	}
	for _, key := range []string{"force_cpu", "paged_attention"} {
		v, ok := options[key]
		if !ok {
			continue
		}
		if _, isBool := v.(bool); !isBool {
			return types.ErrConfig("option %q for provider %q must be a boolean", key, providerID)
		}
	}
	if err := requirePositiveUint(providerID, options, "max_num_seqs"); err != nil {
		return err
	}
	if err := requireEmbeddingDimensions(providerID, task, options); err != nil {
		return err
	}
	if v, ok := options["gguf_files"]; ok {
		items, isArray := v.([]any)
		if !isArray {
			return types.ErrConfig("option %q for provider %q must be an array of strings", "gguf_files", providerID)
		}
		for _, item := range items {
			if _, isString := item.(string); !isString {
				return types.ErrConfig("option %q for provider %q must be an array of strings", "gguf_files", providerID)
			}
		}
	}
	return nil
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// asUint64 accepts the numeric shapes options might arrive in: a JSON
// decode produces float64; callers building an AliasSpec programmatically
// might use any Go integer type.
func asUint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case float64:
		if n < 0 || n != float64(int64(n)) {
			return 0, false
		}
		return uint64(n), true
	case int:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case int64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case uint64:
		return n, true
	case uint:
		return uint64(n), true
	default:
		return 0, false
	}
}
