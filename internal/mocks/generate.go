package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/field --output domain/field --outpkg fieldmock --filename repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/booking --output domain/booking --outpkg bookingmock --filename repository_mock.go
