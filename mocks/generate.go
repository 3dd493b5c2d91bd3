package mocks

//go:generate mockgen -destination grants.go -package mocks github.com/vkngwrapper/osmem/sysmem Grants,GrantCallbacks
