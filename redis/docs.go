// Package redis wraps go-redis with named connections.
//
// # Configuration
//
// Connections are read from the FBRedis section of a viper source:
//
//	FBRedis:
//	  Connections:
//	    Default:
//	      DefaultDatabase: 2
//	      EndPoints:
//	        - Host: cache.internal
//	          Port: 6380
//	    Sessions:
//	      Ssl: true
//	      SslHost: sessions.example.com
//	      EndPoints:
//	        - HostPort: sessions.example.com:6380
//
// Settings absent from the source keep their defaults: 16 databases, 5000ms
// connect, sync and async timeouts, 3 retries and port 6379.
//
// # Factory
//
// A Factory validates every connection when it is built, then connects each
// one on first request. Whatever happens on that first attempt, success or
// failure, is what every caller for that name gets from then on.
//
// # Databases
//
// A Client holds one driver client per numbered database. The default
// database is opened by Connect; the others are opened the first time they
// are used and kept until Close. DefaultDB (-1) always means the
// connection's default database.
package redis
