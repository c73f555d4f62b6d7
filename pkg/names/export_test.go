package names

import "context"

// ReloadFrom returns a ReloadFunc that replaces dict with the contents of paths.
func ReloadFrom(dict *Dictionary, paths []string) ReloadFunc {
	return func(ctx context.Context) error {
		_, err := dict.Reload(ctx, paths...)

		return err
	}
}
