package manifest

// Changes is the work needed to move from a cached set to a desired set.
type Changes struct {
	ToInstall PackageSet
	ToDelete  PackageSet
}

// Diff computes desired-cached (to install) and cached-desired (to delete).
func Diff(cached, desired PackageSet) Changes {
	c, d := cached.items(), desired.items()
	return Changes{
		ToInstall: PackageSet{set: d.Difference(c)},
		ToDelete:  PackageSet{set: c.Difference(d)},
	}
}

// Empty reports whether no action is required.
func (c Changes) Empty() bool {
	return c.ToInstall.IsEmpty() && c.ToDelete.IsEmpty()
}
