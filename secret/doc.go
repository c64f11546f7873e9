// Package secret resolves credential references in configuration.
//
// A value of the form "secretref:<provider>:<ref>" is looked up through the
// named Provider. The builtin providers are "env" (ref is a variable name)
// and "file" (ref is a path, trailing newline trimmed). Any other value has
// ${VAR} references expanded and is otherwise returned unchanged:
//
//	r := secret.NewResolver(secret.EnvProvider{}, secret.FileProvider{})
//	token, err := r.Resolve(ctx, "secretref:file:/run/secrets/catalog_token")
package secret
