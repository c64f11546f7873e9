package catalog_test

import (
	"fmt"

	"github.com/jonwraymond/querysync/auth"
	"github.com/jonwraymond/querysync/catalog"
)

func ExampleGate() {
	user := &auth.Identity{Principal: "u1", Role: auth.RoleUser}
	for _, path := range []string{"/lessons", "/admin/manage-users"} {
		d, _ := catalog.Gate(user, path)
		fmt.Println(path, d)
	}
	d, _ := catalog.Gate(nil, "/tutorials")
	fmt.Println("/tutorials", d)
	// Output:
	// /lessons allowed
	// /admin/manage-users redirect /lessons
	// /tutorials redirect /login
}
